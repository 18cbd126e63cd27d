package ledger_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/system"
	"github.com/valhalla-so/valhalla-server/pkg/solana/token"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger/ledgertest"
)

var startTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger() (*ledger.Ledger, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(startTime)
	return ledger.New(clock), clock
}

func TestSubmit_TransferHappyPath(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	sender := ledgertest.NewFundedKey(t, l)
	receiver := ledgertest.Public(ledgertest.NewKey(t))

	receipt, err := l.Submit(ctx, []ed25519.PrivateKey{sender}, system.Transfer(ledgertest.Public(sender), receiver, 1_000))
	require.NoError(t, err)
	assert.Equal(t, startTime, receipt.BlockTime)

	slot, err := l.GetSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, slot, receipt.Slot)

	balance, err := l.GetBalance(ctx, receiver)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, balance)

	balance, err = l.GetBalance(ctx, ledgertest.Public(sender))
	require.NoError(t, err)
	assert.EqualValues(t, ledgertest.DefaultAirdrop-1_000, balance)
}

func TestSubmit_Atomicity(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	sender := ledgertest.NewFundedKey(t, l)
	receiver := ledgertest.Public(ledgertest.NewKey(t))

	slot, err := l.GetSlot(ctx)
	require.NoError(t, err)

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{sender},
		system.Transfer(ledgertest.Public(sender), receiver, 1_000),
		system.Transfer(ledgertest.Public(sender), receiver, 2*ledgertest.DefaultAirdrop),
	)
	require.ErrorIs(t, err, ledger.ErrInsufficientLamports)

	var instructionErr solana.InstructionError
	require.True(t, errors.As(err, &instructionErr))
	assert.Equal(t, 1, instructionErr.Index)

	ledgertest.RequireAccountNotFound(t, l, receiver)

	balance, err := l.GetBalance(ctx, ledgertest.Public(sender))
	require.NoError(t, err)
	assert.EqualValues(t, ledgertest.DefaultAirdrop, balance)

	current, err := l.GetSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, slot, current)
}

func TestSubmit_MissingSignature(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	sender := ledgertest.NewFundedKey(t, l)
	other := ledgertest.NewFundedKey(t, l)
	receiver := ledgertest.Public(ledgertest.NewKey(t))

	_, err := l.Submit(ctx, []ed25519.PrivateKey{other}, system.Transfer(ledgertest.Public(sender), receiver, 1))
	assert.ErrorIs(t, err, ledger.ErrMissingRequiredSignature)

	_, err = l.Submit(ctx, []ed25519.PrivateKey{sender})
	assert.ErrorIs(t, err, ledger.ErrEmptyTransaction)
}

func TestSubmit_UnknownProgram(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	payer := ledgertest.NewFundedKey(t, l)
	program := ledgertest.Public(ledgertest.NewKey(t))

	_, err := l.Submit(ctx, []ed25519.PrivateKey{payer}, solana.NewInstruction(program, nil, solana.NewAccountMeta(ledgertest.Public(payer), true)))
	assert.ErrorIs(t, err, ledger.ErrUnknownProgram)
}

func TestSubmit_ContextCancelled(t *testing.T) {
	l, _ := newTestLedger()
	sender := ledgertest.NewFundedKey(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Submit(ctx, []ed25519.PrivateKey{sender}, system.Transfer(ledgertest.Public(sender), ledgertest.Public(sender), 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	funder := ledgertest.NewFundedKey(t, l)
	account := ledgertest.NewKey(t)
	owner := ledgertest.Public(ledgertest.NewKey(t))

	_, err := l.Submit(
		ctx,
		[]ed25519.PrivateKey{funder, account},
		system.CreateAccount(ledgertest.Public(funder), ledgertest.Public(account), owner, system.RentExemptMinimum(10)-1, 10),
	)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFundsForRent)

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{funder},
		system.CreateAccount(ledgertest.Public(funder), ledgertest.Public(account), owner, system.RentExemptMinimum(10), 10),
	)
	assert.ErrorIs(t, err, ledger.ErrMissingRequiredSignature)

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{funder, account},
		system.CreateAccount(ledgertest.Public(funder), ledgertest.Public(account), owner, system.RentExemptMinimum(10), 10),
	)
	require.NoError(t, err)

	info, err := l.GetAccountInfo(ctx, ledgertest.Public(account))
	require.NoError(t, err)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, make([]byte, 10), info.Data)
	assert.Equal(t, system.RentExemptMinimum(10), info.Lamports)
	assert.Equal(t, l.GetRentExemptMinimum(ctx, 10), info.Lamports)

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{funder, account},
		system.CreateAccount(ledgertest.Public(funder), ledgertest.Public(account), owner, system.RentExemptMinimum(10), 10),
	)
	assert.ErrorIs(t, err, ledger.ErrAccountAlreadyInUse)
}

func TestToken_TransferChecked(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	authority := ledgertest.NewFundedKey(t, l)
	owner := ledgertest.NewFundedKey(t, l)
	other := ledgertest.NewFundedKey(t, l)

	mint := ledgertest.CreateMint(t, l, authority, token.ProgramKey, 6, nil)
	source := ledgertest.CreateAssociatedTokenAccount(t, l, owner, ledgertest.Public(owner), mint, token.ProgramKey)
	destination := ledgertest.CreateAssociatedTokenAccount(t, l, owner, ledgertest.Public(other), mint, token.ProgramKey)
	ledgertest.MintTo(t, l, authority, mint, source, token.ProgramKey, 1_000)

	assert.EqualValues(t, 1_000, ledgertest.GetMint(t, l, mint).Supply)

	for _, tc := range []struct {
		owner    ed25519.PrivateKey
		amount   uint64
		decimals uint8
		expected error
	}{
		{owner, 10, 9, ledger.ErrDecimalsMismatch},
		{other, 10, 6, ledger.ErrOwnerMismatch},
		{owner, 1_001, 6, ledger.ErrInsufficientFunds},
	} {
		_, err := l.Submit(
			ctx,
			[]ed25519.PrivateKey{tc.owner},
			token.TransferChecked(token.ProgramKey, source, mint, destination, ledgertest.Public(tc.owner), tc.amount, tc.decimals),
		)
		assert.ErrorIs(t, err, tc.expected)
	}

	_, err := l.Submit(
		ctx,
		[]ed25519.PrivateKey{owner},
		token.TransferChecked(token.ProgramKey, source, mint, destination, ledgertest.Public(owner), 400, 6),
	)
	require.NoError(t, err)

	assert.EqualValues(t, 600, ledgertest.GetTokenBalance(t, l, source))
	assert.EqualValues(t, 400, ledgertest.GetTokenBalance(t, l, destination))
	assert.EqualValues(t, 0, ledgertest.GetWithheldAmount(t, l, destination))
}

func TestToken_MintToRequiresAuthority(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	authority := ledgertest.NewFundedKey(t, l)
	attacker := ledgertest.NewFundedKey(t, l)

	mint := ledgertest.CreateMint(t, l, authority, token.ProgramKey, 6, nil)
	destination := ledgertest.CreateAssociatedTokenAccount(t, l, attacker, ledgertest.Public(attacker), mint, token.ProgramKey)

	_, err := l.Submit(
		ctx,
		[]ed25519.PrivateKey{attacker},
		token.MintTo(token.ProgramKey, mint, destination, ledgertest.Public(attacker), 1),
	)
	assert.ErrorIs(t, err, ledger.ErrOwnerMismatch)
	assert.EqualValues(t, 0, ledgertest.GetTokenBalance(t, l, destination))
}

func TestToken2022_TransferFee(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	authority := ledgertest.NewFundedKey(t, l)
	owner := ledgertest.NewFundedKey(t, l)
	other := ledgertest.NewFundedKey(t, l)

	fee := &token.TransferFee{BasisPoints: 100, MaximumFee: 1_000_000}
	mint := ledgertest.CreateMint(t, l, authority, token.Program2022Key, 6, fee)
	require.NotNil(t, ledgertest.GetMint(t, l, mint).TransferFeeConfig)

	source := ledgertest.CreateAssociatedTokenAccount(t, l, owner, ledgertest.Public(owner), mint, token.Program2022Key)
	destination := ledgertest.CreateAssociatedTokenAccount(t, l, other, ledgertest.Public(other), mint, token.Program2022Key)
	ledgertest.MintTo(t, l, authority, mint, source, token.Program2022Key, 10_000)

	info, err := l.GetAccountInfo(ctx, destination)
	require.NoError(t, err)
	assert.Len(t, info.Data, token.AccountWithTransferFeeSize)

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{owner},
		token.TransferChecked(token.Program2022Key, source, mint, destination, ledgertest.Public(owner), 1_000, 6),
	)
	require.NoError(t, err)

	assert.EqualValues(t, 9_000, ledgertest.GetTokenBalance(t, l, source))
	assert.EqualValues(t, 990, ledgertest.GetTokenBalance(t, l, destination))
	assert.EqualValues(t, 10, ledgertest.GetWithheldAmount(t, l, destination))

	// Drain the balance, leaving only the withheld fee behind
	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{other},
		token.TransferChecked(token.Program2022Key, destination, mint, source, ledgertest.Public(other), 990, 6),
	)
	require.NoError(t, err)
	assert.EqualValues(t, 0, ledgertest.GetTokenBalance(t, l, destination))

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{other},
		token.CloseAccount(token.Program2022Key, destination, ledgertest.Public(other), ledgertest.Public(other)),
	)
	assert.ErrorIs(t, err, ledger.ErrAccountHasWithheldFees)

	// Harvesting is permissionless
	_, err = l.Submit(ctx, nil, token.HarvestWithheldTokensToMint(mint, destination))
	require.NoError(t, err)

	assert.EqualValues(t, 0, ledgertest.GetWithheldAmount(t, l, destination))
	assert.EqualValues(t, 10, ledgertest.GetMint(t, l, mint).TransferFeeConfig.WithheldAmount)

	before, err := l.GetBalance(ctx, ledgertest.Public(other))
	require.NoError(t, err)

	_, err = l.Submit(
		ctx,
		[]ed25519.PrivateKey{other},
		token.CloseAccount(token.Program2022Key, destination, ledgertest.Public(other), ledgertest.Public(other)),
	)
	require.NoError(t, err)

	after, err := l.GetBalance(ctx, ledgertest.Public(other))
	require.NoError(t, err)
	assert.Equal(t, before+system.RentExemptMinimum(token.AccountWithTransferFeeSize), after)
	ledgertest.RequireAccountNotFound(t, l, destination)
}

func TestToken_CloseAccountWithBalance(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	authority := ledgertest.NewFundedKey(t, l)
	owner := ledgertest.NewFundedKey(t, l)

	mint := ledgertest.CreateMint(t, l, authority, token.ProgramKey, 6, nil)
	account := ledgertest.CreateAssociatedTokenAccount(t, l, owner, ledgertest.Public(owner), mint, token.ProgramKey)
	ledgertest.MintTo(t, l, authority, mint, account, token.ProgramKey, 1)

	_, err := l.Submit(
		ctx,
		[]ed25519.PrivateKey{owner},
		token.CloseAccount(token.ProgramKey, account, ledgertest.Public(owner), ledgertest.Public(owner)),
	)
	assert.ErrorIs(t, err, ledger.ErrAccountHasBalance)
}

func TestAssociatedTokenAccount(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	authority := ledgertest.NewFundedKey(t, l)
	payer := ledgertest.NewFundedKey(t, l)
	wallet := ledgertest.Public(ledgertest.NewKey(t))

	mint := ledgertest.CreateMint(t, l, authority, token.ProgramKey, 6, nil)

	first := ledgertest.CreateAssociatedTokenAccount(t, l, payer, wallet, mint, token.ProgramKey)
	second := ledgertest.CreateAssociatedTokenAccount(t, l, payer, wallet, mint, token.ProgramKey)
	assert.Equal(t, first, second)

	expected, err := token.GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)

	account := ledgertest.GetTokenAccount(t, l, first)
	assert.Equal(t, wallet, account.Owner)
	assert.Equal(t, mint, account.Mint)
	assert.Equal(t, token.AccountStateInitialized, account.State)
	assert.Nil(t, account.WithheldAmount)

	// The mint isn't owned by Token-2022
	ix, _, err := token.CreateAssociatedTokenAccountIdempotent(ledgertest.Public(payer), wallet, mint, token.Program2022Key)
	require.NoError(t, err)
	_, err = l.Submit(ctx, []ed25519.PrivateKey{payer}, ix)
	assert.ErrorIs(t, err, ledger.ErrInvalidAccountOwner)
}

func TestInvokeSigned(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	program := ledgertest.Public(ledgertest.NewKey(t))
	l.RegisterProgram(program, ledger.ProgramFunc(func(ctx *ledger.InvokeContext, ix solana.Instruction) error {
		payer := ix.Accounts[0].PublicKey
		pda := ix.Accounts[1].PublicKey

		create := system.CreateAccount(payer, pda, ctx.ProgramID(), system.RentExemptMinimum(8), 8)
		if err := ctx.InvokeSigned(create, [][]byte{[]byte("escrow"), ix.Data}); err != nil {
			return err
		}
		return ctx.SetAccountData(pda, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	}))

	pda, bump, err := solana.FindProgramAddressAndBump(program, []byte("escrow"))
	require.NoError(t, err)

	payer := ledgertest.NewFundedKey(t, l)
	newInstruction := func(bump uint8) solana.Instruction {
		return solana.NewInstruction(
			program,
			[]byte{bump},
			solana.NewAccountMeta(ledgertest.Public(payer), true),
			solana.NewAccountMeta(pda, false),
			solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		)
	}

	_, err = l.Submit(ctx, []ed25519.PrivateKey{payer}, newInstruction(bump+1))
	require.Error(t, err)
	ledgertest.RequireAccountNotFound(t, l, pda)

	_, err = l.Submit(ctx, []ed25519.PrivateKey{payer}, newInstruction(bump))
	require.NoError(t, err)

	info, err := l.GetAccountInfo(ctx, pda)
	require.NoError(t, err)
	assert.Equal(t, program, info.Owner)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, info.Data)
}

func TestInvoke_ExternalAccountModification(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	program := ledgertest.Public(ledgertest.NewKey(t))
	l.RegisterProgram(program, ledger.ProgramFunc(func(ctx *ledger.InvokeContext, ix solana.Instruction) error {
		return ctx.SetAccountData(ix.Accounts[0].PublicKey, nil)
	}))

	payer := ledgertest.NewFundedKey(t, l)
	_, err := l.Submit(ctx, []ed25519.PrivateKey{payer}, solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(ledgertest.Public(payer), true),
	))
	assert.ErrorIs(t, err, ledger.ErrExternalDataModified)
}

func TestInvoke_PrivilegeEscalation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	victim := ledgertest.NewFundedKey(t, l)
	payer := ledgertest.NewFundedKey(t, l)

	program := ledgertest.Public(ledgertest.NewKey(t))
	l.RegisterProgram(program, ledger.ProgramFunc(func(ctx *ledger.InvokeContext, ix solana.Instruction) error {
		return ctx.Invoke(system.Transfer(ix.Accounts[1].PublicKey, ix.Accounts[0].PublicKey, 1))
	}))

	_, err := l.Submit(ctx, []ed25519.PrivateKey{payer}, solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(ledgertest.Public(payer), true),
		solana.NewAccountMeta(ledgertest.Public(victim), false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	))
	assert.ErrorIs(t, err, ledger.ErrPrivilegeEscalation)

	balance, err := l.GetBalance(ctx, ledgertest.Public(victim))
	require.NoError(t, err)
	assert.EqualValues(t, ledgertest.DefaultAirdrop, balance)
}

func TestGetProgramAccounts(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	authority := ledgertest.NewFundedKey(t, l)
	mint1 := ledgertest.CreateMint(t, l, authority, token.ProgramKey, 6, nil)
	mint2 := ledgertest.CreateMint(t, l, authority, token.ProgramKey, 6, nil)

	var expected []ed25519.PublicKey
	for i := 0; i < 5; i++ {
		owner := ledgertest.Public(ledgertest.NewKey(t))
		expected = append(expected, ledgertest.CreateAssociatedTokenAccount(t, l, authority, owner, mint1, token.ProgramKey))
		ledgertest.CreateAssociatedTokenAccount(t, l, authority, owner, mint2, token.ProgramKey)
	}

	accounts, err := l.GetProgramAccounts(
		ctx,
		token.ProgramKey,
		solana.DataSizeFilter{Size: token.AccountSize},
		solana.MemcmpFilter{Offset: 0, Bytes: mint1},
	)
	require.NoError(t, err)
	require.Len(t, accounts, len(expected))

	for i, account := range accounts {
		if i > 0 {
			assert.True(t, bytes.Compare(accounts[i-1].PublicKey, account.PublicKey) < 0)
		}

		var tokenAccount token.Account
		require.True(t, tokenAccount.Unmarshal(account.Account.Data))
		assert.Equal(t, mint1, tokenAccount.Mint)
	}

	accounts, err = l.GetProgramAccounts(ctx, token.ProgramKey, solana.DataSizeFilter{Size: token.MintSize})
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestSubmit_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	receiver := ledgertest.Public(ledgertest.NewKey(t))

	var senders []ed25519.PrivateKey
	for i := 0; i < 32; i++ {
		senders = append(senders, ledgertest.NewFundedKey(t, l))
	}

	var wg sync.WaitGroup
	for _, sender := range senders {
		wg.Add(1)
		go func(sender ed25519.PrivateKey) {
			defer wg.Done()

			for i := 0; i < 10; i++ {
				_, err := l.Submit(ctx, []ed25519.PrivateKey{sender}, system.Transfer(ledgertest.Public(sender), receiver, 1))
				assert.NoError(t, err)
			}
		}(sender)
	}
	wg.Wait()

	balance, err := l.GetBalance(ctx, receiver)
	require.NoError(t, err)
	assert.EqualValues(t, len(senders)*10, balance)
}
