package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/app"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/testutil"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
	vault_memory "github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault/memory"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger/ledgertest"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/valhallatest"
)

func TestDecodeConfig(t *testing.T) {
	config, err := decodeConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultLocalnetConfig, *config)

	config, err = decodeConfig(app.Config{
		"store":            "postgres",
		"payer_key_file":   "/tmp/payer.json",
		"indexer_interval": "250ms",
		"autopay_rate_hz":  "0.5",
		"postgres": map[string]interface{}{
			"host":    "db",
			"port":    6432,
			"db_name": "valhalla",
		},
		"bootstrap": map[string]interface{}{
			"enabled":                false,
			"token_fee_basis_points": 25,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, storePostgres, config.Store)
	assert.Equal(t, "/tmp/payer.json", config.PayerKeyFile)
	assert.Equal(t, 250*time.Millisecond, config.IndexerInterval)
	assert.Equal(t, defaultLocalnetConfig.AutopayInterval, config.AutopayInterval)
	assert.Equal(t, 0.5, config.AutopayRateHz)
	assert.Equal(t, "db", config.Postgres.Host)
	assert.Equal(t, 6432, config.Postgres.Port)
	assert.False(t, config.Bootstrap.Enabled)
	assert.EqualValues(t, 25, config.Bootstrap.TokenFeeBasisPoints)
	assert.Equal(t, defaultLocalnetConfig.Bootstrap.Symbol, config.Bootstrap.Symbol)

	for _, raw := range []app.Config{
		{"store": "sqlite"},
		{"payer_key_file": ""},
		{"autopay_interval": "0s"},
	} {
		_, err = decodeConfig(raw)
		assert.Error(t, err)
	}
}

func TestLoadOrCreateKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payer.json")

	created, err := loadOrCreateKey(path)
	require.NoError(t, err)

	loaded, err := loadOrCreateKey(path)
	require.NoError(t, err)
	assert.True(t, created.Equal(loaded))

	seed := make([]int, ed25519.SeedSize)
	for i := range seed {
		seed[i] = i
	}
	raw, err := json.Marshal(seed)
	require.NoError(t, err)
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, raw, 0o600))

	fromSeed, err := loadOrCreateKey(seedPath)
	require.NoError(t, err)
	assert.EqualValues(t, 0, fromSeed.Seed()[0])
	assert.EqualValues(t, 31, fromSeed.Seed()[31])

	for name, contents := range map[string]string{
		"base58.json":   `"` + base58.Encode(created) + `"`,
		"overflow.json": `[256]`,
		"short.json":    `[1, 2, 3]`,
	} {
		badPath := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(badPath, []byte(contents), 0o600))

		_, err = loadOrCreateKey(badPath)
		assert.Error(t, err, name)
	}

	mismatched := append(ed25519.PrivateKey{}, created...)
	mismatched[ed25519.PrivateKeySize-1] ^= 0xff
	values := make([]int, len(mismatched))
	for i, b := range mismatched {
		values[i] = int(b)
	}
	raw, err = json.Marshal(values)
	require.NoError(t, err)
	mismatchedPath := filepath.Join(dir, "mismatched.json")
	require.NoError(t, os.WriteFile(mismatchedPath, raw, 0o600))

	_, err = loadOrCreateKey(mismatchedPath)
	assert.Error(t, err)
}

func TestVaultHandler(t *testing.T) {
	vaults := vault_memory.New()
	handler := newVaultHandler(vaults)

	record := &vault.Record{
		Address:              "vault",
		Name:                 "team",
		Creator:              "creator",
		Recipient:            "recipient",
		Mint:                 "mint",
		TotalNumberOfPayouts: 4,
		PayoutInterval:       10,
		CancelAuthority:      valhalla.AuthorityBoth,
		Autopay:              true,
		State:                vault.StateActive,
		Slot:                 7,
	}
	require.NoError(t, vaults.Save(context.Background(), record))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, vaultPath+"?address=vault", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body vaultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "vault", body.Address)
	assert.Equal(t, "both", body.CancelAuthority)
	assert.Equal(t, "active", body.State)
	assert.EqualValues(t, 4, body.TotalNumberOfPayouts)
	assert.EqualValues(t, 7, body.Slot)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, vaultPath+"?address=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, vaultPath, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, vaultPath+"?address=vault", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVaultListHandler(t *testing.T) {
	vaults := vault_memory.New()
	handler := newVaultListHandler(vaults)

	for i := 0; i < 5; i++ {
		require.NoError(t, vaults.Save(context.Background(), &vault.Record{
			Address:              fmt.Sprintf("vault%d", i),
			Creator:              "creator",
			Recipient:            fmt.Sprintf("recipient%d", i%2),
			Mint:                 "mint",
			TotalNumberOfPayouts: 1,
			CancelAuthority:      valhalla.AuthorityNeither,
			State:                vault.StateActive,
			Slot:                 1,
		}))
	}

	get := func(target string) (*httptest.ResponseRecorder, vaultListResponse) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		var body vaultListResponse
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		}
		return rec, body
	}

	rec, page := get(vaultsPath + "?creator=creator&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, page.Vaults, 2)
	assert.Equal(t, "vault0", page.Vaults[0].Address)
	assert.Equal(t, "vault1", page.Vaults[1].Address)
	require.NotEmpty(t, page.NextCursor)

	var seen []string
	for cursor := ""; ; {
		rec, page = get(vaultsPath + "?creator=creator&limit=2&cursor=" + cursor)
		require.Equal(t, http.StatusOK, rec.Code)
		for _, v := range page.Vaults {
			seen = append(seen, v.Address)
		}
		if len(page.NextCursor) == 0 {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"vault0", "vault1", "vault2", "vault3", "vault4"}, seen)

	_, page = get(vaultsPath + "?recipient=recipient1&order=desc")
	require.Len(t, page.Vaults, 2)
	assert.Equal(t, "vault3", page.Vaults[0].Address)
	assert.Equal(t, "vault1", page.Vaults[1].Address)
	assert.Empty(t, page.NextCursor)

	rec, page = get(vaultsPath + "?mint=unknown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, page.Vaults)

	for _, target := range []string{
		vaultsPath,
		vaultsPath + "?creator=creator&mint=mint",
		vaultsPath + "?creator=creator&cursor=invalid!",
		vaultsPath + "?creator=creator&limit=0",
		vaultsPath + "?creator=creator&limit=ten",
	} {
		rec, _ = get(target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, vaultsPath+"?creator=creator", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLocalnet_AutopaysIndexedVault(t *testing.T) {
	testutil.DisableLogging()

	clock := clockwork.NewFakeClockAt(valhallatest.StartTime)
	a := newLocalnetApp(clock)

	err := a.Init(app.Config{
		"payer_key_file":   filepath.Join(t.TempDir(), "payer.json"),
		"indexer_interval": "20ms",
		"autopay_interval": "20ms",
		"autopay_rate_hz":  100,
	}, nil)
	require.NoError(t, err)
	defer a.Stop()

	config, err := a.client.GetConfig(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, defaultLocalnetConfig.Bootstrap.TokenFeeBasisPoints, config.TokenFeeBasisPoints)
	assert.EqualValues(t, a.payer.Public(), config.Admin)

	env := &valhallatest.Environment{
		Ledger:        a.ledger,
		Clock:         clock,
		Client:        a.client,
		MintAuthority: ledgertest.NewFundedKey(t, a.ledger),
	}
	v := env.NewVestingVault(t, 1_000, 2, true)
	address := base58.Encode(v.Address)

	testutil.RequireEventually(t, 5*time.Second, func() bool {
		_, err := a.vaults.GetByAddress(context.Background(), address)
		return err == nil
	})

	env.Advance(time.Second)
	testutil.RequireEventually(t, 5*time.Second, func() bool {
		return v.RecipientBalance(t, env) == 497
	})

	env.Advance(time.Second)
	testutil.RequireEventually(t, 5*time.Second, func() bool {
		return v.RecipientBalance(t, env) == 995
	})

	testutil.RequireEventually(t, 5*time.Second, func() bool {
		record, err := a.vaults.GetByAddress(context.Background(), address)
		return err == nil && record.PaymentsComplete()
	})

	a.Stop()
	a.Stop()
	select {
	case <-a.ShutdownChan():
	default:
		t.Fatal("shutdown channel not closed")
	}
}
