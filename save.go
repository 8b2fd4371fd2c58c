package livetune

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/dshills/livetune/format"
)

// Save writes the current parameter values back to the watched file in
// its format. Lua files are read-only; saving one fails with an
// InvalidFormat error. Save participates in the callback re-entrancy
// guard.
func (p *Params) Save() error {
	if p.guardMutate("Save") {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveLocked(p.path, format.Resolve(p.format, p.path))
}

// SaveAs writes the current values to path in the format detected from
// its extension, leaving the watched file and format untouched. Useful
// for converting a parameter file between formats.
func (p *Params) SaveAs(path string) error {
	if p.guardMutate("SaveAs") {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveLocked(abs, format.Detect(abs))
}

// saveLocked marshals and writes the value map. On success to the
// watched path, the modtime cache absorbs the self-inflicted change so
// an immediate trigger does not re-read the file.
func (p *Params) saveLocked(path string, f format.Format) error {
	data, err := format.Marshal(p.values, f)
	if err != nil {
		return p.saveFailLocked(newError(KindInvalidFormat, path, err))
	}

	wf, ok := p.fsys.(WriteFileSystem)
	if !ok {
		return p.saveFailLocked(newError(KindAccessDenied, path, errors.New("file system is read-only")))
	}
	if err := wf.WriteFile(path, data, 0o644); err != nil {
		return p.saveFailLocked(newError(KindAccessDenied, path, err))
	}

	if path == p.path {
		if info, err := p.fsys.Stat(path); err == nil {
			p.cache.note(time.Now(), info.ModTime())
		}
	}
	return nil
}

func (p *Params) saveFailLocked(err *Error) error {
	p.lastErr = errorInfoFrom(err, err.Path)
	return err
}
