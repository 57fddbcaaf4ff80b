package periphio

import (
	"errors"
	"testing"
)

func TestMissingPin(t *testing.T) {
	if err := Init(); err != nil {
		t.Skip("No periph host drivers", err)
	}

	if _, err := OpenLine("NO_SUCH_PIN"); !errors.Is(err, ErrorNoPin) {
		t.Error("Missing pin opened", err)
	}
}

func TestNotArmed(t *testing.T) {
	l := &Line{}
	if _, err := l.PollInterrupt(false, 0); err != ErrorNotArmed {
		t.Error("Poll before Arm", err)
	}
}

func TestTransferLength(t *testing.T) {
	s := &SPI{}
	if err := s.Transfer(make([]byte, 3), make([]byte, 2)); err == nil {
		t.Error("Length mismatch accepted")
	}
}
