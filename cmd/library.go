package cmd

import (
	"fmt"

	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/config"
)

// loadLibrary returns the presets plus the animations defined in boardFile.
// A missing board file yields just the presets.
func loadLibrary(boardFile string) (*animation.Library, error) {
	board, err := config.LoadBoard(boardFile)
	if err != nil {
		return nil, err
	}
	custom, err := board.BuildAnimations()
	if err != nil {
		return nil, err
	}

	library := animation.NewLibrary()
	if err := library.Replace(custom); err != nil {
		return nil, err
	}
	return library, nil
}

// lookupAnimation resolves name in the library built from boardFile.
func lookupAnimation(boardFile, name string) (animation.Animation, error) {
	library, err := loadLibrary(boardFile)
	if err != nil {
		return animation.Animation{}, err
	}
	anim, ok := library.Get(name)
	if !ok {
		return animation.Animation{}, fmt.Errorf("unknown animation %q", name)
	}
	return anim, nil
}
