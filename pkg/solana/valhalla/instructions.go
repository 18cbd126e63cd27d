package valhalla

import (
	"bytes"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
)

type InstructionType uint8

const (
	InstructionTypeUnknown InstructionType = iota
	InstructionTypeCreateConfig
	InstructionTypeUpdateAdmin
	InstructionTypeUpdateDaoTreasury
	InstructionTypeUpdateDevFee
	InstructionTypeUpdateTokenFeeBasisPoints
	InstructionTypeUpdateGovernanceTokenAmount
	InstructionTypeMintGovernanceTokens
	InstructionTypeCreate
	InstructionTypeDisburse
	InstructionTypeCancel
	InstructionTypeClose
)

var instructionDiscriminators = map[InstructionType][]byte{
	InstructionTypeCreateConfig:                CreateConfigInstructionDiscriminator,
	InstructionTypeUpdateAdmin:                 UpdateAdminInstructionDiscriminator,
	InstructionTypeUpdateDaoTreasury:           UpdateDaoTreasuryInstructionDiscriminator,
	InstructionTypeUpdateDevFee:                UpdateDevFeeInstructionDiscriminator,
	InstructionTypeUpdateTokenFeeBasisPoints:   UpdateTokenFeeBasisPointsInstructionDiscriminator,
	InstructionTypeUpdateGovernanceTokenAmount: UpdateGovernanceTokenAmountInstructionDiscriminator,
	InstructionTypeMintGovernanceTokens:        MintGovernanceTokensInstructionDiscriminator,
	InstructionTypeCreate:                      CreateInstructionDiscriminator,
	InstructionTypeDisburse:                    DisburseInstructionDiscriminator,
	InstructionTypeCancel:                      CancelInstructionDiscriminator,
	InstructionTypeClose:                       CloseInstructionDiscriminator,
}

// GetInstructionType identifies a program instruction by its discriminator
func GetInstructionType(data []byte) InstructionType {
	if len(data) < 8 {
		return InstructionTypeUnknown
	}

	for instructionType, discriminator := range instructionDiscriminators {
		if bytes.Equal(data[:8], discriminator) {
			return instructionType
		}
	}
	return InstructionTypeUnknown
}

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeCreateConfig:
		return "create_config"
	case InstructionTypeUpdateAdmin:
		return "update_admin"
	case InstructionTypeUpdateDaoTreasury:
		return "update_dao_treasury"
	case InstructionTypeUpdateDevFee:
		return "update_dev_fee"
	case InstructionTypeUpdateTokenFeeBasisPoints:
		return "update_token_fee_basis_points"
	case InstructionTypeUpdateGovernanceTokenAmount:
		return "update_governance_token_amount"
	case InstructionTypeMintGovernanceTokens:
		return "mint_governance_tokens"
	case InstructionTypeCreate:
		return "create"
	case InstructionTypeDisburse:
		return "disburse"
	case InstructionTypeCancel:
		return "cancel"
	case InstructionTypeClose:
		return "close"
	}
	return "unknown"
}

func checkInstruction(ix solana.Instruction, discriminator []byte, argsSize, accounts int, offset *int) error {
	if !bytes.Equal(ix.Program, PROGRAM_ID) {
		return ErrInvalidProgram
	}

	if len(ix.Data) < len(discriminator)+argsSize {
		return ErrInvalidInstructionData
	}

	var actual []byte
	getDiscriminator(ix.Data, &actual, offset)
	if !bytes.Equal(actual, discriminator) {
		return ErrInvalidInstructionData
	}

	if len(ix.Accounts) < accounts {
		return ErrInvalidInstructionData
	}

	return nil
}

// ValidMetadata reports whether the governance token metadata fits the
// metadata program limits.
func (args *CreateConfigInstructionArgs) ValidMetadata() bool {
	return len(args.Name) <= maxTokenNameLength &&
		len(args.Symbol) <= maxTokenSymbolLength &&
		len(args.Uri) <= maxTokenUriLength
}
