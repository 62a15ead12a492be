package bot

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/antiscam-bot/internal/bot/filters"
)

func TestCommandAllowed(t *testing.T) {
	tests := []struct {
		cmd    string
		access filters.Access
		want   bool
	}{
		{"loghere", filters.AccessModerated, true},
		{"loghere", filters.AccessCommands, false},
		{"stoplogging", filters.AccessCommands, false},
		{"stoplogging", filters.AccessModerated, true},
		{"help", filters.AccessCommands, true},
		{"suspiciousness", filters.AccessCommands, true},
		{"help", filters.AccessDenied, false},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			assert.Equal(t, tt.want, commandAllowed(tt.cmd, tt.access))
		})
	}
}

func TestIsAdminStatus(t *testing.T) {
	assert.True(t, isAdminStatus(telego.MemberStatusCreator))
	assert.True(t, isAdminStatus(telego.MemberStatusAdministrator))
	assert.False(t, isAdminStatus(telego.MemberStatusMember))
	assert.False(t, isAdminStatus(telego.MemberStatusRestricted))
}
