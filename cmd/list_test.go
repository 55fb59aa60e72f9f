// File: cmd/list_test.go
package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/suite"
)

// newConfigProbe returns a subcommand that captures the config the root command resolved.
func newConfigProbe(got *config.Interface) *cobra.Command {
	return &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			*got = cfg
			return err
		},
	}
}

func TestListCmd(t *testing.T) {
	resetForTest(t)

	out, err := executeCommand(t, NewRootCommand(), "--config", createTempConfig(t, "{}"), "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		suite.SetRoute,
		suite.SelectComfortTariff,
		suite.FillPhoneNumber,
		suite.AddCreditCard,
		suite.WriteMessage,
		suite.RequestBlanketAndScarves,
		suite.RequestIceCream,
		suite.SearchTaxi,
	}
	require.Len(t, lines, len(want))
	for i, name := range want {
		fields := strings.Fields(lines[i])
		require.NotEmpty(t, fields)
		assert.Equal(t, name, fields[0])
		assert.Greater(t, len(fields), 1, "%s has a description", name)
	}
}

func TestListCmd_RejectsArgs(t *testing.T) {
	resetForTest(t)
	_, err := executeCommand(t, NewRootCommand(), "--config", createTempConfig(t, "{}"), "list", "extra")
	assert.Error(t, err)
}
