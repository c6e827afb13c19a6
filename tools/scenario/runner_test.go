package scenario_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/defiguardian/guardian/tools/scenario"
)

func TestDefaultScenarioRunsToCompletion(t *testing.T) {
	var out bytes.Buffer
	report, err := scenario.Run(scenario.Default(), log.NewNopLogger(), &out)
	require.NoError(t, err)

	require.Equal(t, sdkmath.NewInt(10_000), report.TotalShares)
	require.Equal(t, sdkmath.NewInt(10_000), report.TotalPower)
	require.Equal(t, uint64(1), report.Policies)
	require.Equal(t, 1, report.ClaimsApproved)
	require.Zero(t, report.ClaimsRejected)
	// Premium split 700/300, payout 250 out of the reserve.
	require.Equal(t, sdkmath.NewInt(10_700), report.VaultBalance)
	require.Equal(t, sdkmath.NewInt(50), report.ReserveBalance)
	require.Equal(t, sdkmath.NewInt(50), report.Reserved)
	require.Contains(t, out.String(), "claims approved     1")
}

func TestRejectedClaimLeavesReserveIntact(t *testing.T) {
	s := scenario.Default()
	s.Claims[0].Votes = []scenario.Vote{{Voter: "lp-1", Support: false}}

	report, err := scenario.Run(s, log.NewNopLogger(), new(bytes.Buffer))
	require.NoError(t, err)
	require.Zero(t, report.ClaimsApproved)
	require.Equal(t, 1, report.ClaimsRejected)
	require.Equal(t, sdkmath.NewInt(300), report.Reserved)
	require.Equal(t, sdkmath.NewInt(300), report.ReserveBalance)
}

func TestLoadParsesAndValidatesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: from-file
lp_bps: 8000
reserve_bps: 2000
native_budget: "500"
deposits:
  - account: lp-1
    amount: "5000"
`), 0o600))

	s, err := scenario.Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-file", s.Name)
	require.Equal(t, uint32(8_000), s.LpBps)
	require.Len(t, s.Deposits, 1)

	require.NoError(t, os.WriteFile(path, []byte(`
lp_bps: 8000
reserve_bps: 3000
native_budget: "500"
`), 0o600))
	_, err = scenario.Load(path)
	require.ErrorContains(t, err, "sum to 10000")
}
