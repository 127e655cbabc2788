package commands

import (
	"context"

	"github.com/arthur-debert/fwprov/pkg/definitions"
	"github.com/arthur-debert/fwprov/pkg/encryption"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/flash"
	"github.com/arthur-debert/fwprov/pkg/publish"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// keys every esptool invocation needs
var deviceKeys = []string{"flash_port", "esp_tool_dir"}

func (p *pipeline) flasher() (*flash.Flasher, error) {
	layout, err := p.loadLayout()
	if err != nil {
		return nil, err
	}
	return flash.NewFlasher(layout, p.tools, p.opts.Runner), nil
}

func (p *pipeline) flash(ctx context.Context) error {
	if err := p.cfg.Require(deviceKeys...); err != nil {
		return err
	}

	if p.inv.Method == types.MethodErase {
		// erase does not depend on the layout
		f := flash.NewFlasher(nil, p.tools, p.opts.Runner)
		return p.step(ctx, "erase flash", func() error {
			return f.Erase(ctx)
		})
	}

	entries, ok := flash.SetFor(p.inv.Method, p.inv.Variant, p.cfg.BuildPath())
	if !ok {
		return errors.Newf(errors.ErrInvalidInput, "flash does not support %s", p.inv.Method)
	}
	f, err := p.flasher()
	if err != nil {
		return err
	}
	return p.step(ctx, "write flash", func() error {
		plan, err := f.Write(ctx, entries)
		p.result.Plan = &plan
		return err
	})
}

func (p *pipeline) read(ctx context.Context) error {
	if err := p.cfg.Require(deviceKeys...); err != nil {
		return err
	}
	f, err := p.flasher()
	if err != nil {
		return err
	}
	return p.step(ctx, "read "+p.inv.Partition, func() error {
		out, err := f.Read(ctx, p.inv.Partition, p.inv.ProjectDir)
		if err != nil {
			return err
		}
		p.result.ReadPath = out
		if out != "" {
			p.artifact(out)
		}
		return nil
	})
}

func (p *pipeline) prepare(ctx context.Context) error {
	switch p.inv.Method {
	case types.MethodEncryptChip:
		if err := p.cfg.Require("flash_port", "esp_tool_dir", "flash_encryption_key", "signing_key"); err != nil {
			return err
		}
		prov := encryption.NewProvisioner(p.tools, p.opts.Runner,
			p.cfg.Path(p.cfg.FlashEncryptionKey), p.cfg.Path(p.cfg.SigningKey))
		prov.Confirm = p.opts.Confirm
		return p.step(ctx, "secure provisioning", func() error {
			return prov.ProvisionSecureBoot(ctx)
		})

	case types.MethodMenuconfig:
		if err := p.setTarget(ctx); err != nil {
			return err
		}
		return p.run(ctx, p.tools.Menuconfig())
	}
	return errors.Newf(errors.ErrInvalidInput, "prepare does not support %s", p.inv.Method)
}

func (p *pipeline) debug(ctx context.Context) error {
	switch p.inv.Method {
	case types.MethodMonitor:
		if err := p.cfg.Require("flash_port"); err != nil {
			return err
		}
		if err := p.setTarget(ctx); err != nil {
			return err
		}
		return p.run(ctx, p.tools.Monitor())

	case types.MethodOpenOCD:
		if err := p.cfg.Require("openocd_config"); err != nil {
			return err
		}
		if err := p.setTarget(ctx); err != nil {
			return err
		}
		return p.run(ctx, p.tools.OpenOCD(p.cfg.Path(p.cfg.OpenOCDConfig)))
	}
	return errors.Newf(errors.ErrInvalidInput, "debug does not support %s", p.inv.Method)
}

func (p *pipeline) publish(ctx context.Context) error {
	store := p.opts.Store
	if store == nil {
		if err := p.cfg.Require("update_store"); err != nil {
			return err
		}
		s, err := publish.StoreFor(p.cfg.UpdateStore)
		if err != nil {
			return err
		}
		store = s
	}

	version := ""
	if defs, err := definitions.Read(p.cfg.Path(p.cfg.DefinitionsHpp)); err == nil {
		version = defs.FirmwareVersion
	} else {
		p.logger.Warn().Err(err).Msg("No firmware version available, publishing under the data digest")
	}

	return p.step(ctx, "publish update image", func() error {
		rel, err := publish.NewPublisher(store).Publish(ctx, p.cfg.BuildPath(types.ArtifactUpdate), version)
		if err != nil {
			return err
		}
		p.result.Release = rel
		return nil
	})
}
