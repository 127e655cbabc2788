package encryption

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/toolchain"
)

// DefaultFuses are burned, then write-protected, in this order
var DefaultFuses = []string{
	"SPI_BOOT_CRYPT_CNT 1",
	"DIS_DOWNLOAD_MANUAL_ENCRYPT",
}

// Key blocks and purposes
const (
	FlashEncryptionKeyBlock   = "BLOCK_KEY1"
	FlashEncryptionKeyPurpose = "XTS_AES_128_KEY"
	SigningKeyBlock           = "BLOCK_KEY0"
	SigningKeyPurpose         = "SECURE_BOOT_DIGEST0"
)

// Phase is a stage of secure provisioning
type Phase string

const (
	PhaseBurnFuse    Phase = "burn_efuse"
	PhaseProtectFuse Phase = "write_protect_efuse"
	PhaseBurnKey     Phase = "burn_key"
)

// Step is one irreversible device operation
type Step struct {
	Phase   Phase
	Index   int
	Target  string
	Command toolchain.Command
}

// Confirmer approves irreversible operations
type Confirmer interface {
	Confirm(title string, items []string) (bool, error)
}

// Provisioner burns the flash-encryption and secure-boot fuses and keys
type Provisioner struct {
	logger zerolog.Logger

	Tools  *toolchain.Tools
	Runner toolchain.Runner

	Fuses              []string
	FlashEncryptionKey string
	SigningKey         string

	// Confirm is asked once before the first step. Nil skips the prompt.
	Confirm Confirmer
}

// NewProvisioner creates a provisioner for the default fuse set
func NewProvisioner(tools *toolchain.Tools, runner toolchain.Runner, flashKey, signingKey string) *Provisioner {
	return &Provisioner{
		logger:             logging.GetLogger("provision"),
		Tools:              tools,
		Runner:             runner,
		Fuses:              DefaultFuses,
		FlashEncryptionKey: flashKey,
		SigningKey:         signingKey,
	}
}

// Plan returns the steps in execution order: every fuse burn, then every
// fuse write-protect, then the flash-encryption key, then the signing key.
func (p *Provisioner) Plan() []Step {
	steps := make([]Step, 0, 2*len(p.Fuses)+2)
	for i, fuse := range p.Fuses {
		steps = append(steps, Step{
			Phase:   PhaseBurnFuse,
			Index:   i,
			Target:  fuse,
			Command: p.Tools.BurnEfuse(fuse),
		})
	}
	for i, fuse := range p.Fuses {
		name := fuseName(fuse)
		steps = append(steps, Step{
			Phase:   PhaseProtectFuse,
			Index:   i,
			Target:  name,
			Command: p.Tools.WriteProtectEfuse(name),
		})
	}
	steps = append(steps,
		Step{
			Phase:   PhaseBurnKey,
			Index:   0,
			Target:  FlashEncryptionKeyBlock,
			Command: p.Tools.BurnKey(FlashEncryptionKeyBlock, p.FlashEncryptionKey, FlashEncryptionKeyPurpose),
		},
		Step{
			Phase:   PhaseBurnKey,
			Index:   1,
			Target:  SigningKeyBlock,
			Command: p.Tools.BurnKey(SigningKeyBlock, p.SigningKey, SigningKeyPurpose),
		},
	)
	return steps
}

// fuseName drops the value from "NAME value"
func fuseName(fuse string) string {
	fields := strings.Fields(fuse)
	if len(fields) == 0 {
		return fuse
	}
	return fields[0]
}

// Preflight checks everything that can be checked without the device
func (p *Provisioner) Preflight() error {
	if strings.TrimSpace(p.Tools.Port) == "" {
		return errors.New(errors.ErrConfigValid, "flash_port must be set to provision a chip").
			WithDetail("key", "flash_port")
	}
	if len(p.Fuses) == 0 {
		return errors.New(errors.ErrConfigValid, "no fuses to burn")
	}
	for _, k := range []struct{ key, path string }{
		{"flash_encryption_key", p.FlashEncryptionKey},
		{"signing_key", p.SigningKey},
	} {
		if k.path == "" {
			return errors.Newf(errors.ErrConfigValid, "%s must be set to provision a chip", k.key).
				WithDetail("key", k.key)
		}
		info, err := os.Stat(k.path)
		if err != nil || info.IsDir() {
			return errors.Newf(errors.ErrSourceMissing, "%s %s does not exist", k.key, k.path).
				WithDetail("key", k.key).
				WithDetail("path", k.path)
		}
	}
	return nil
}

// ProvisionSecureBoot runs Plan against the device. Preconditions and the
// confirmation are checked before the first fuse is touched. Once the first
// step has started, cancellation is ignored and the first failure stops the
// sequence with a provisioning error naming the step; completed steps are
// never retried or undone.
func (p *Provisioner) ProvisionSecureBoot(ctx context.Context) error {
	if err := p.Preflight(); err != nil {
		return err
	}

	steps := p.Plan()
	if p.Confirm != nil {
		items := make([]string, len(steps))
		for i, s := range steps {
			items[i] = s.Command.String()
		}
		ok, err := p.Confirm.Confirm("Secure provisioning will permanently burn the following fuses and keys:", items)
		if err != nil {
			return errors.Wrap(err, errors.ErrProvisioningDeclined, "confirmation failed")
		}
		if !ok {
			return errors.New(errors.ErrProvisioningDeclined, "secure provisioning declined")
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCanceled, "provisioning canceled before the first fuse")
	}
	// fuses cannot be half-sequenced; the sequence runs to completion or failure
	runCtx := context.WithoutCancel(ctx)

	for i, s := range steps {
		p.logger.Warn().
			Str("phase", string(s.Phase)).
			Int("index", s.Index).
			Str("target", s.Target).
			Msg("Provisioning step")

		if err := p.Runner.Run(runCtx, s.Command); err != nil {
			return errors.Wrapf(err, errors.ErrProvisioning, "provisioning failed at %s %s", s.Phase, s.Target).
				WithDetail("phase", string(s.Phase)).
				WithDetail("index", s.Index).
				WithDetail("target", s.Target).
				WithDetail("completed", i)
		}
	}

	p.logger.Warn().Int("steps", len(steps)).Msg("Secure provisioning complete")
	return nil
}
