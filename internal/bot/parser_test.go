package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser("@AntiScam_Bot")

	tests := []struct {
		name    string
		text    string
		cmd     string
		args    []string
		command bool
	}{
		{"bang", "!help", "help", nil, true},
		{"dot", ".Suspiciousness free nitro", "suspiciousness", []string{"free", "nitro"}, true},
		{"slash with own mention", "/loghere@antiscam_bot", "loghere", nil, true},
		{"slash for another bot", "/loghere@other_bot", "", nil, false},
		{"spaces", "  !  stoplogging  ", "stoplogging", nil, true},
		{"plain text", "free nitro", "", nil, false},
		{"prefix only", "!", "", nil, false},
		{"bare mention", "/@antiscam_bot", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.command, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestParseCommandWithoutBotName(t *testing.T) {
	cmd, _, ok := NewCommandParser("").ParseCommand("/help@whatever")
	assert.True(t, ok)
	assert.Equal(t, "help", cmd)
}
