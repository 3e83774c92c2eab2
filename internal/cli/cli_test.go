package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lendingdesk/internal/auth"
	"github.com/mrlokans/lendingdesk/internal/database"
	"github.com/mrlokans/lendingdesk/internal/database/books"
	"github.com/mrlokans/lendingdesk/internal/database/issues"
	"github.com/mrlokans/lendingdesk/internal/database/members"
)

func newHashCommand(stdin string, answers ...string) (*HashPasswordCommand, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &HashPasswordCommand{
		Cost: 4,
		in:   strings.NewReader(stdin),
		out:  out,
		readPassword: func(string) (string, error) {
			if len(answers) == 0 {
				return "", errors.New("no more input")
			}
			answer := answers[0]
			answers = answers[1:]
			return answer, nil
		},
	}
	return cmd, out
}

func TestHashPassword_Prompt(t *testing.T) {
	cmd, out := newHashCommand("", "correct horse battery", "correct horse battery")

	require.NoError(t, cmd.Run())

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
	assert.NoError(t, auth.CheckPassword("correct horse battery", hash))
}

func TestHashPassword_Mismatch(t *testing.T) {
	cmd, out := newHashCommand("", "correct horse battery", "correct horse batterz")

	err := cmd.Run()

	assert.EqualError(t, err, "passwords do not match")
	assert.Empty(t, out.String())
}

func TestHashPassword_Stdin(t *testing.T) {
	cmd, out := newHashCommand("piped password 123\n")
	cmd.Stdin = true

	require.NoError(t, cmd.Run())
	assert.NoError(t, auth.CheckPassword("piped password 123", strings.TrimSpace(out.String())))
}

func TestHashPassword_TooShort(t *testing.T) {
	cmd, _ := newHashCommand("short\n")
	cmd.Stdin = true

	assert.ErrorIs(t, cmd.Run(), auth.ErrPasswordTooShort)
}

func TestHashPassword_ParseFlags(t *testing.T) {
	cmd := NewHashPasswordCommand()

	require.NoError(t, cmd.ParseFlags([]string{"-cost", "10", "-stdin"}))
	assert.Equal(t, 10, cmd.Cost)
	assert.True(t, cmd.Stdin)
}

func TestSeedDemo(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "demo.db")
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	cmd := NewSeedDemoCommand()
	cmd.DatabasePath = dbPath
	cmd.now = func() time.Time { return now }

	require.NoError(t, cmd.Run())

	db, err := database.NewDatabaseWithOptions(dbPath, database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)

	bookCount, err := books.NewRepository(db.DB).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoBooks)), bookCount)

	memberCount, err := members.NewRepository(db.DB).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoMembers)), memberCount)

	issuesRepo := issues.NewRepository(db.DB)
	open, err := issuesRepo.CountOpen()
	require.NoError(t, err)
	assert.Equal(t, int64(4), open)

	// Loans issued 12 and 10 days ago are past the seven day period
	overdue, err := issuesRepo.CountOverdue(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), overdue)
	require.NoError(t, db.Close())

	t.Run("reset starts over", func(t *testing.T) {
		cmd.Reset = true
		require.NoError(t, cmd.Run())
	})
}
