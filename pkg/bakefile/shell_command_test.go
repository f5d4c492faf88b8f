// SPDX-License-Identifier: MPL-2.0

package bakefile

import (
	"errors"
	"testing"
)

func TestShellCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     ShellCommand
		wantErr bool
	}{
		{name: "simple command is valid", cmd: "mkdir -p /srv/data", wantErr: false},
		{name: "pipeline is valid", cmd: "cat requirements.txt | wc -l", wantErr: false},
		{name: "conjunction is valid", cmd: "apt-get update && apt-get clean", wantErr: false},
		{name: "empty is invalid", cmd: "", wantErr: true},
		{name: "whitespace-only is invalid", cmd: "  \t ", wantErr: true},
		{name: "unclosed quote is invalid", cmd: `echo "unterminated`, wantErr: true},
		{name: "dangling operator is invalid", cmd: "ls &&", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.cmd, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidShellCommand) {
				t.Errorf("expected error to wrap ErrInvalidShellCommand, got %v", err)
			}
		})
	}
}
