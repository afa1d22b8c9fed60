package poolclient

import (
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/engine"
	"github.com/swapool-hq/swapool/pkg/engine/mocks"
	"github.com/swapool-hq/swapool/pkg/health"
)

var (
	admin       = common.HexToAddress("0xAd111111111111111111111111111111111111d1")
	custodyAddr = common.HexToAddress("0xC0de000000000000000000000000000000000001")
	venueAddr   = common.HexToAddress("0xFacade0000000000000000000000000000000001")
	alice       = common.HexToAddress("0xA11ce00000000000000000000000000000000001")
	bob         = common.HexToAddress("0xB0b0000000000000000000000000000000000001")
	tokenX      = common.HexToAddress("0x7000000000000000000000000000000000000010")
	tokenY      = common.HexToAddress("0x7000000000000000000000000000000000000020")
)

func newTestClient(t *testing.T) (*Client, *custody.MemoryBank) {
	t.Helper()

	bank := custody.NewMemoryBank()
	eng := engine.New(engine.Params{
		Admin:          admin,
		CustodyAddress: custodyAddr,
	}, bank, nil, nil)

	boundary := &mocks.ScriptedBoundary{Realized: big.NewInt(150), Bank: bank, Custody: custodyAddr, Venue: venueAddr}
	eng.RegisterBoundary(venueAddr, boundary)
	require.NoError(t, eng.SetVenueAllowed(admin, venueAddr, true))

	ts := httptest.NewServer(health.NewServer("0", eng, nil).Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL, nil), bank
}

func TestClientFullLifecycle(t *testing.T) {
	client, bank := newTestClient(t)
	bank.Mint(tokenX, alice, big.NewInt(1000))
	bank.Mint(tokenX, bob, big.NewInt(1000))

	id, err := client.CreateIntent(tokenX, tokenY, big.NewInt(100), time.Now().Add(time.Hour), engine.PolicyCommitmentFor(venueAddr))
	require.NoError(t, err)
	require.NotEqual(t, common.Hash{}, id)

	require.NoError(t, client.Contribute(id, alice, big.NewInt(60)))
	require.NoError(t, client.Contribute(id, bob, big.NewInt(40)))

	amount, err := client.GetContribution(id, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(60), amount.Int64())

	intent, err := client.GetIntent(id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), intent.Total.Int64())
	assert.Len(t, intent.Participants, 2)

	realized, err := client.Execute(id, alice, venueAddr, []byte{0xde, 0xad}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(150), realized.Int64())

	assert.Equal(t, int64(90), bank.BalanceOf(tokenY, alice).Int64())
	assert.Equal(t, int64(60), bank.BalanceOf(tokenY, bob).Int64())

	intent, err = client.GetIntent(id)
	require.NoError(t, err)
	assert.Equal(t, "EXECUTED", string(intent.State))
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetIntent(common.HexToHash("0xdead"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "intent not found")
}

func TestClientCleanupBeforeExpiry(t *testing.T) {
	client, bank := newTestClient(t)
	bank.Mint(tokenX, alice, big.NewInt(1000))

	id, err := client.CreateIntent(tokenX, tokenY, big.NewInt(100), time.Now().Add(time.Hour), engine.PolicyCommitmentFor(venueAddr))
	require.NoError(t, err)
	require.NoError(t, client.Contribute(id, alice, big.NewInt(50)))

	err = client.CleanupExpired(id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
