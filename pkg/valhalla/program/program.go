package program

import (
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/solana"
	"github.com/valhalla-so/valhalla-server/pkg/solana/valhalla"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/ledger"
)

// Program is the vault program. It owns the config singleton, every vault
// account, vault escrows via their derived token authority, and the mint
// authority of the governance token.
type Program struct {
	log *logrus.Entry
}

var _ ledger.Program = (*Program)(nil)

func New() *Program {
	return &Program{
		log: logrus.StandardLogger().WithField("type", "valhalla/program"),
	}
}

// Register installs the program on a ledger under valhalla.PROGRAM_ID
func (p *Program) Register(l *ledger.Ledger) {
	l.RegisterProgram(valhalla.PROGRAM_ID, p)
}

func (p *Program) Process(ctx *ledger.InvokeContext, ix solana.Instruction) error {
	instructionType := valhalla.GetInstructionType(ix.Data)

	log := p.log.WithFields(logrus.Fields{
		"method":      "Process",
		"instruction": instructionType.String(),
		"slot":        ctx.Slot(),
	})

	var err error
	switch instructionType {
	case valhalla.InstructionTypeCreateConfig:
		err = p.createConfig(ctx, ix)
	case valhalla.InstructionTypeUpdateAdmin:
		err = p.updateAdmin(ctx, ix)
	case valhalla.InstructionTypeUpdateDaoTreasury:
		err = p.updateDaoTreasury(ctx, ix)
	case valhalla.InstructionTypeUpdateDevFee:
		err = p.updateDevFee(ctx, ix)
	case valhalla.InstructionTypeUpdateTokenFeeBasisPoints:
		err = p.updateTokenFeeBasisPoints(ctx, ix)
	case valhalla.InstructionTypeUpdateGovernanceTokenAmount:
		err = p.updateGovernanceTokenAmount(ctx, ix)
	case valhalla.InstructionTypeMintGovernanceTokens:
		err = p.mintGovernanceTokens(ctx, ix)
	case valhalla.InstructionTypeCreate:
		err = p.create(ctx, ix)
	case valhalla.InstructionTypeDisburse:
		err = p.disburse(ctx, ix)
	case valhalla.InstructionTypeCancel:
		err = p.cancel(ctx, ix)
	case valhalla.InstructionTypeClose:
		err = p.close(ctx, ix)
	default:
		err = valhalla.ErrInstructionFallbackNotFound
	}

	if err != nil {
		log.WithError(err).Debug("instruction failed")
		return err
	}

	log.Trace("instruction processed")
	return nil
}
