package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomRules(t *testing.T) {
	type form struct {
		Window   string `validate:"omitempty,hhmmwindow"`
		Phone    string `validate:"omitempty,number,len=10"`
		Password string `validate:"omitempty,password"`
	}

	tests := []struct {
		name string
		in   form
		ok   bool
	}{
		{"valid window", form{Window: "09:00-17:00"}, true},
		{"window end before start", form{Window: "17:00-09:00"}, false},
		{"window garbage", form{Window: "nine to five"}, false},
		{"valid phone", form{Phone: "5551234567"}, true},
		{"short phone", form{Phone: "555123"}, false},
		{"phone with letters", form{Phone: "555123456a"}, false},
		{"signed phone", form{Phone: "+555123456"}, false},
		{"strong password", form{Password: "Secret123"}, true},
		{"no digit", form{Password: "SecretPass"}, false},
		{"too short", form{Password: "Ab1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate.Struct(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
