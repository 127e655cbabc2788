package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/config"
	"github.com/arthur-debert/fwprov/pkg/definitions"
	"github.com/arthur-debert/fwprov/pkg/encryption"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// Files the build writes into the project directory
const (
	TargetCMakeFile = "target.cmake"
	SdkconfigFile   = "sdkconfig"
)

// TargetCMake is the cmake snippet that selects the sdkconfig defaults
// for a variant.
func TargetCMake(v types.Variant) string {
	return fmt.Sprintf("message(\"\\n\\n#### Build Projekt in %s Configuration ####\\n\\n\" )\n"+
		"set(SDKCONFIG_DEFAULTS  %s)", strings.ToUpper(string(v)), v.DefaultsFile())
}

func (p *pipeline) build(ctx context.Context) error {
	if err := p.requireBuild(); err != nil {
		return err
	}
	if err := p.setTarget(ctx); err != nil {
		return err
	}
	if err := p.step(ctx, "remove stale sdkconfig", p.removeSdkconfig); err != nil {
		return err
	}

	switch p.inv.Method {
	case types.MethodApp:
		if p.inv.Variant.IsRelease() {
			return p.buildAppRelease(ctx)
		}
		return p.buildAppDebug(ctx)
	case types.MethodData:
		return p.buildData(ctx)
	case types.MethodUpdate:
		return p.buildUpdate(ctx)
	case types.MethodClean:
		return p.run(ctx, p.tools.IDF("clean"))
	case types.MethodFullClean:
		return p.run(ctx, p.tools.IDF("fullclean"))
	}
	return errors.Newf(errors.ErrInvalidInput, "build does not support %s", p.inv.Method)
}

// requireBuild checks the keys a build method needs before anything runs
func (p *pipeline) requireBuild() error {
	var keys []string
	needsData := p.inv.Method == types.MethodData || p.inv.Method == types.MethodUpdate
	needsEncryption := p.inv.Variant.IsRelease() &&
		(p.inv.Method == types.MethodApp || p.inv.Method == types.MethodUpdate)

	if needsData {
		keys = append(keys, "webfrontend", "esp_idf_path")
	}
	if needsEncryption {
		keys = append(keys, "flash_encryption_key")
		if p.cfg.EncryptionBackend == config.BackendEspsecure {
			keys = append(keys, "esp_tool_dir")
		}
	}
	return p.cfg.Require(keys...)
}

// setTarget selects the variant defaults and the chip
func (p *pipeline) setTarget(ctx context.Context) error {
	err := p.step(ctx, "write "+TargetCMakeFile, func() error {
		path := p.cfg.Path(TargetCMakeFile)
		if err := os.WriteFile(path, []byte(TargetCMake(p.inv.Variant)), 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
		}
		p.artifact(path)
		return nil
	})
	if err != nil {
		return err
	}
	return p.run(ctx, p.tools.SetTarget())
}

func (p *pipeline) removeSdkconfig() error {
	path := p.cfg.Path(SdkconfigFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot remove %s", path)
	}
	return nil
}

func (p *pipeline) buildAppDebug(ctx context.Context) error {
	if err := p.run(ctx, p.tools.IDF("build")); err != nil {
		return err
	}
	return p.step(ctx, "copy app to "+types.ArtifactAppDebug, p.copyDebugApp)
}

// copyDebugApp replaces any previous app_debug.bin with the fresh build
func (p *pipeline) copyDebugApp() error {
	src := p.cfg.BuildPath(types.ArtifactApp)
	dst := p.cfg.BuildPath(types.ArtifactAppDebug)

	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot remove stale %s", dst)
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	p.artifact(dst)
	return nil
}

func (p *pipeline) buildAppRelease(ctx context.Context) error {
	if err := p.transformDefinitions(ctx); err != nil {
		return err
	}
	return p.buildAndEncrypt(ctx)
}

func (p *pipeline) transformDefinitions(ctx context.Context) error {
	return p.step(ctx, "transform definitions to release", func() error {
		_, err := definitions.TransformToRelease(p.cfg.Path(p.cfg.DefinitionsHpp))
		return err
	})
}

// buildAndEncrypt builds bootloader and app, then encrypts bootloader,
// partition table and app, in that order.
func (p *pipeline) buildAndEncrypt(ctx context.Context) error {
	if err := p.run(ctx, p.tools.IDF("bootloader")); err != nil {
		return err
	}
	if err := p.run(ctx, p.tools.IDF("build")); err != nil {
		return err
	}

	layout, err := p.loadLayout()
	if err != nil {
		return err
	}
	enc := encryption.NewPartitionEncryptor(layout, p.encryptor())
	for _, job := range types.ReleaseEncryptionJobs {
		src := p.cfg.BuildPath(job.Plain)
		dst := p.cfg.BuildPath(job.Encrypted)
		err := p.step(ctx, "encrypt "+job.Partition, func() error {
			return enc.EncryptPartition(ctx, job.Partition, src, dst)
		})
		if err != nil {
			return err
		}
		p.artifact(dst)
	}
	return nil
}

func (p *pipeline) encryptor() encryption.Encryptor {
	key := p.cfg.Path(p.cfg.FlashEncryptionKey)
	if p.cfg.EncryptionBackend == config.BackendEspsecure {
		return &encryption.EspsecureEncryptor{KeyFile: key, Tools: p.tools, Runner: p.opts.Runner}
	}
	return &encryption.NativeEncryptor{KeyFile: key}
}

// buildData packs the web frontend into a SPIFFS image sized to data_0
func (p *pipeline) buildData(ctx context.Context) error {
	layout, err := p.loadLayout()
	if err != nil {
		return err
	}
	size, err := layout.Size(types.PartitionData)
	if err != nil {
		return err
	}
	dst := p.cfg.BuildPath(types.ArtifactData)
	if err := p.run(ctx, p.tools.SpiffsGen(size, p.cfg.Path(p.cfg.WebFrontend), dst)); err != nil {
		return err
	}
	p.artifact(dst)
	return nil
}

func (p *pipeline) buildUpdate(ctx context.Context) error {
	if p.inv.Variant.IsRelease() {
		if err := p.transformDefinitions(ctx); err != nil {
			return err
		}
		if err := p.buildAndEncrypt(ctx); err != nil {
			return err
		}
	} else if err := p.run(ctx, p.tools.IDF("build")); err != nil {
		return err
	}

	if err := p.buildData(ctx); err != nil {
		return err
	}
	if err := p.composeUpdate(ctx); err != nil {
		return err
	}
	if !p.inv.Variant.IsRelease() {
		return p.step(ctx, "copy app to "+types.ArtifactAppDebug, p.copyDebugApp)
	}
	return nil
}

func (p *pipeline) composeUpdate(ctx context.Context) error {
	return p.step(ctx, "compose update image", func() error {
		moduleType, err := p.moduleType()
		if err != nil {
			return err
		}
		dst := p.cfg.BuildPath(types.ArtifactUpdate)
		h, err := update.Compose(p.cfg.BuildPath(types.ArtifactApp), p.cfg.BuildPath(types.ArtifactData), moduleType, dst)
		if err != nil {
			return err
		}
		p.result.Header = h
		p.artifact(dst)
		return nil
	})
}

// moduleType prefers the module_type key and falls back to Definitions.hpp
func (p *pipeline) moduleType() (string, error) {
	if p.cfg.ModuleType != "" {
		return p.cfg.ModuleType, nil
	}
	defs, err := definitions.Read(p.cfg.Path(p.cfg.DefinitionsHpp))
	if err != nil {
		return "", err
	}
	if defs.ModuleType == "" {
		return "", errors.Newf(errors.ErrConfigValid, "no MODULE_TYPE in %s and module_type is not set", defs.Path).
			WithDetail("key", "module_type")
	}
	return defs.ModuleType, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrSourceMissing, "%s does not exist", src).
				WithDetail("path", src)
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create directory for %s", dst)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot copy %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", dst)
	}
	return nil
}
