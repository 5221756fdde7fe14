package nats

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subject prefixes for NATS topics.
const (
	SubjectLEDsPrefix    = "ledanim.leds"
	SubjectControlPrefix = "ledanim.control"
)

// SubjectLEDState returns the subject LED state changes are published on.
func SubjectLEDState(led string) string {
	return fmt.Sprintf("%s.%s.state", SubjectLEDsPrefix, led)
}

// SubjectLEDAnimation returns the subject animation requests for an LED are sent to.
func SubjectLEDAnimation(led string) string {
	return fmt.Sprintf("%s.%s.animation", SubjectControlPrefix, led)
}

// LEDFromSubject extracts the LED token from a ledanim.<kind>.<led>.<verb> subject.
func LEDFromSubject(subject string) string {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 {
		return ""
	}
	return parts[2]
}

// AnimationMessage asks the daemon to switch an LED's animation.
type AnimationMessage struct {
	LED       string `json:"led,omitempty"` // defaults to the subject token
	Animation string `json:"animation"`
	Timestamp string `json:"timestamp,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Marshal serializes the message to JSON.
func (m AnimationMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// StateMessage mirrors an LED state change.
type StateMessage struct {
	LED       string `json:"led"`
	Pin       uint8  `json:"pin"`
	Animation string `json:"animation"`
	TaskState string `json:"task_state"`
	Output    bool   `json:"output"`
	Timestamp string `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalAnimation deserializes an AnimationMessage from JSON.
func UnmarshalAnimation(data []byte) (AnimationMessage, error) {
	var m AnimationMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalState deserializes a StateMessage from JSON.
func UnmarshalState(data []byte) (StateMessage, error) {
	var m StateMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
