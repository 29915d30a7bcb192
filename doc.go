// Package gocef bootstraps the platform-specific CEF native bundle for a
// Go host application: it resolves the right release artifact for the
// running OS and architecture, downloads and unpacks it into an install
// directory exactly once, and then drives the native layer's
// initialization safely across concurrent goroutines.
//
// # Usage
//
//	builder, err := gocef.New(gocef.Config{
//	    InstallDir: filepath.Join(dataDir, "cef"),
//	    Source:     release.Source{Owner: "acme", Repo: "cef-bundles"},
//	    Runtime:    myRuntime,
//	})
//	if err != nil {
//	    return err
//	}
//	app, err := builder.GetOrBuild(ctx)
//
// GetOrBuild may be called from any number of goroutines; the first
// caller performs the installation and native startup, the rest block
// until the shared handle (or the failure) is ready. A failed attempt
// leaves no completion marker behind, so calling again retries from
// scratch.
//
// # Architecture
//
// The package is organized into several components:
//   - Builder: single-initialization guard and native lifecycle
//   - release: manifest fetching and deterministic asset resolution
//   - install: idempotent, crash-resumable installation orchestration
//   - platform: OS/architecture detection and artifact match tokens
//
// Byte-level downloading and archive extraction sit behind interfaces in
// the install package; defaults are provided, and hosts with their own
// transfer stacks can swap them out.
package gocef
