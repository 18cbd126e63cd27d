package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

// ProgramKey is the address of the conventional token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// Program2022Key is the address of the token program with extension support
// (transfer fees, in our case).
//
// Current key: TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb
var Program2022Key ed25519.PublicKey

func init() {
	var err error
	Program2022Key, err = base58.Decode("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	if err != nil {
		panic(err)
	}
}

// IsTokenProgram returns whether the key is one of the supported token programs.
func IsTokenProgram(key ed25519.PublicKey) bool {
	return bytes.Equal(key, ProgramKey) || bytes.Equal(key, Program2022Key)
}

type Command byte

const (
	// nolint:varcheck,deadcode,unused
	CommandInitializeMint Command = iota
	// nolint:varcheck,deadcode,unused
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	// nolint:varcheck,deadcode,unused
	CommandSetAuthority
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	CommandCloseAccount
	// nolint:varcheck,deadcode,unused
	CommandFreezeAccount
	// nolint:varcheck,deadcode,unused
	CommandThawAccount
	CommandTransferChecked
	// nolint:varcheck,deadcode,unused
	CommandApproveChecked
	// nolint:varcheck,deadcode,unused
	CommandMintToChecked
	// nolint:varcheck,deadcode,unused
	CommandBurnChecked
	// nolint:varcheck,deadcode,unused
	CommandInitializeAccount2
	// nolint:varcheck,deadcode,unused
	CommandSyncNative
	CommandInitializeAccount3
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig2
	CommandInitializeMint2

	// Token-2022 only
	CommandTransferFeeExtension Command = 26

	CommandUnknown = Command(math.MaxUint8)
)

// Token-2022 transfer fee extension sub-commands
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/extension/transfer_fee/instruction.rs
const (
	TransferFeeCommandInitializeTransferFeeConfig byte = 0
	TransferFeeCommandHarvestWithheldTokensToMint byte = 4
)

const (
	// nolint:varcheck,deadcode,unused
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	// nolint:varcheck,deadcode,unused
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	// nolint:varcheck,deadcode,unused
	ErrorFixedSupply
	ErrorAlreadyInUse
	// nolint:varcheck,deadcode,unused
	ErrorInvalidNumberOfProvidedSigners
	// nolint:varcheck,deadcode,unused
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	// nolint:varcheck,deadcode,unused
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	// nolint:varcheck,deadcode,unused
	ErrorInvalidState
	ErrorOverflow
	// nolint:varcheck,deadcode,unused
	ErrorAuthorityTypeNotSupported
	// nolint:varcheck,deadcode,unused
	ErrorMintCannotFreeze
	// nolint:varcheck,deadcode,unused
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

// GetCommand returns the token command of the instruction.
func GetCommand(i solana.Instruction) (Command, error) {
	if !IsTokenProgram(i.Program) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L476-L492
func InitializeMint2(program, mint, mintAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//
	// Data: decimals, mint authority, optional freeze authority (none)
	data := make([]byte, 1+1+ed25519.PublicKeySize+1)
	data[0] = byte(CommandInitializeMint2)
	data[1] = decimals
	copy(data[2:], mintAuthority)

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(mint, false),
	)
}

type DecompiledInitializeMint struct {
	Mint          ed25519.PublicKey
	MintAuthority ed25519.PublicKey
	Decimals      byte
}

func DecompileInitializeMint2(i solana.Instruction) (*DecompiledInitializeMint, error) {
	if err := checkCommand(i, CommandInitializeMint2, 1); err != nil {
		return nil, err
	}
	if len(i.Data) < 2+ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledInitializeMint{
		Mint:          i.Accounts[0].PublicKey,
		Decimals:      i.Data[1],
		MintAuthority: ed25519.PublicKey(bytes.Clone(i.Data[2 : 2+ed25519.PublicKeySize])),
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L448-L459
func InitializeAccount3(program, account, mint, owner ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//
	// Data: the new account's owner
	data := make([]byte, 1+ed25519.PublicKeySize)
	data[0] = byte(CommandInitializeAccount3)
	copy(data[1:], owner)

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
	)
}

type DecompiledInitializeAccount struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

func DecompileInitializeAccount3(i solana.Instruction) (*DecompiledInitializeAccount, error) {
	if err := checkCommand(i, CommandInitializeAccount3, 2); err != nil {
		return nil, err
	}
	if len(i.Data) != 1+ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledInitializeAccount{
		Account: i.Accounts[0].PublicKey,
		Mint:    i.Accounts[1].PublicKey,
		Owner:   ed25519.PublicKey(bytes.Clone(i.Data[1:])),
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L230-L252
func TransferChecked(program, source, mint, dest, owner ed25519.PublicKey, amount uint64, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[signer]` The source account's owner/delegate.
	data := make([]byte, 10)
	data[0] = byte(CommandTransferChecked)
	binary.LittleEndian.PutUint64(data[1:], amount)
	data[9] = decimals

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(source, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledTransferChecked struct {
	Source      ed25519.PublicKey
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
	Decimals    byte
}

func DecompileTransferChecked(i solana.Instruction) (*DecompiledTransferChecked, error) {
	if err := checkCommand(i, CommandTransferChecked, 4); err != nil {
		return nil, err
	}
	if len(i.Data) != 10 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransferChecked{
		Source:      i.Accounts[0].PublicKey,
		Mint:        i.Accounts[1].PublicKey,
		Destination: i.Accounts[2].PublicKey,
		Owner:       i.Accounts[3].PublicKey,
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
		Decimals:    i.Data[9],
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L146-L159
func MintTo(program, mint, dest, mintAuthority ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	data := make([]byte, 9)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(mintAuthority, true),
	)
}

type DecompiledMintTo struct {
	Mint          ed25519.PublicKey
	Destination   ed25519.PublicKey
	MintAuthority ed25519.PublicKey
	Amount        uint64
}

func DecompileMintTo(i solana.Instruction) (*DecompiledMintTo, error) {
	if err := checkCommand(i, CommandMintTo, 3); err != nil {
		return nil, err
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledMintTo{
		Mint:          i.Accounts[0].PublicKey,
		Destination:   i.Accounts[1].PublicKey,
		MintAuthority: i.Accounts[2].PublicKey,
		Amount:        binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L183-L197
func CloseAccount(program, account, dest, owner ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The account to close.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The account's owner.
	return solana.NewInstruction(
		program,
		[]byte{byte(CommandCloseAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledCloseAccount struct {
	Account     ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
}

func DecompileCloseAccount(i solana.Instruction) (*DecompiledCloseAccount, error) {
	if err := checkCommand(i, CommandCloseAccount, 3); err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledCloseAccount{
		Account:     i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Owner:       i.Accounts[2].PublicKey,
	}, nil
}

// InitializeTransferFeeConfig enables the transfer fee extension on an
// uninitialized Token-2022 mint. It must precede InitializeMint2.
func InitializeTransferFeeConfig(mint ed25519.PublicKey, basisPoints uint16, maximumFee uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//
	// Data: both optional authorities are left unset
	data := make([]byte, 2+1+1+2+8)
	data[0] = byte(CommandTransferFeeExtension)
	data[1] = TransferFeeCommandInitializeTransferFeeConfig
	binary.LittleEndian.PutUint16(data[4:], basisPoints)
	binary.LittleEndian.PutUint64(data[6:], maximumFee)

	return solana.NewInstruction(
		Program2022Key,
		data,
		solana.NewAccountMeta(mint, false),
	)
}

type DecompiledInitializeTransferFeeConfig struct {
	Mint        ed25519.PublicKey
	BasisPoints uint16
	MaximumFee  uint64
}

func DecompileInitializeTransferFeeConfig(i solana.Instruction) (*DecompiledInitializeTransferFeeConfig, error) {
	if err := checkTransferFeeCommand(i, TransferFeeCommandInitializeTransferFeeConfig, 1); err != nil {
		return nil, err
	}
	if len(i.Data) != 14 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledInitializeTransferFeeConfig{
		Mint:        i.Accounts[0].PublicKey,
		BasisPoints: binary.LittleEndian.Uint16(i.Data[4:]),
		MaximumFee:  binary.LittleEndian.Uint64(i.Data[6:]),
	}, nil
}

// HarvestWithheldTokensToMint moves the withheld transfer fees of the source
// accounts into the mint. It is permissionless.
func HarvestWithheldTokensToMint(mint ed25519.PublicKey, sources ...ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint.
	//   1. ..1+N `[writable]` The source accounts to harvest from.
	accounts := make([]solana.AccountMeta, 1+len(sources))
	accounts[0] = solana.NewAccountMeta(mint, false)
	for i, source := range sources {
		accounts[1+i] = solana.NewAccountMeta(source, false)
	}

	return solana.NewInstruction(
		Program2022Key,
		[]byte{byte(CommandTransferFeeExtension), TransferFeeCommandHarvestWithheldTokensToMint},
		accounts...,
	)
}

type DecompiledHarvestWithheldTokensToMint struct {
	Mint    ed25519.PublicKey
	Sources []ed25519.PublicKey
}

func DecompileHarvestWithheldTokensToMint(i solana.Instruction) (*DecompiledHarvestWithheldTokensToMint, error) {
	if err := checkTransferFeeCommand(i, TransferFeeCommandHarvestWithheldTokensToMint, 1); err != nil {
		return nil, err
	}

	v := &DecompiledHarvestWithheldTokensToMint{
		Mint: i.Accounts[0].PublicKey,
	}
	for _, account := range i.Accounts[1:] {
		v.Sources = append(v.Sources, account.PublicKey)
	}
	return v, nil
}

func checkCommand(i solana.Instruction, expected Command, minAccounts int) error {
	command, err := GetCommand(i)
	if err != nil {
		return err
	}
	if command != expected {
		return solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) < minAccounts {
		return errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	return nil
}

func checkTransferFeeCommand(i solana.Instruction, expected byte, minAccounts int) error {
	if !bytes.Equal(i.Program, Program2022Key) {
		return solana.ErrIncorrectProgram
	}
	if err := checkCommand(i, CommandTransferFeeExtension, minAccounts); err != nil {
		return err
	}
	if len(i.Data) < 2 || i.Data[1] != expected {
		return solana.ErrIncorrectInstruction
	}
	return nil
}
