package install

// Progress holds the six notification hooks emitted while the bundle is
// prepared and the native layer brought up. Each hook is independently
// overridable; nil hooks are no-ops. Downloading receives a fraction in
// [0,1].
type Progress struct {
	Locating     func()
	Downloading  func(fraction float64)
	Extracting   func()
	Install      func()
	Initializing func()
	Initialized  func()
}

// normalized returns a copy with every nil hook replaced by a no-op, so
// call sites never nil-check.
func (p Progress) normalized() Progress {
	if p.Locating == nil {
		p.Locating = func() {}
	}
	if p.Downloading == nil {
		p.Downloading = func(float64) {}
	}
	if p.Extracting == nil {
		p.Extracting = func() {}
	}
	if p.Install == nil {
		p.Install = func() {}
	}
	if p.Initializing == nil {
		p.Initializing = func() {}
	}
	if p.Initialized == nil {
		p.Initialized = func() {}
	}
	return p
}

// Normalized exposes the nil-safe copy for packages layering on top of
// the orchestrator.
func (p Progress) Normalized() Progress {
	return p.normalized()
}
