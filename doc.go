/*
Package relift rewrites Go module source at load time and caches the result.

It sits between module discovery and execution: modules under configured
"managed" directories have their source run through a configurable rewrite
step before a yaegi interpreter executes them, and the rewritten text is
persisted so repeat loads skip the rewrite. Modules outside the managed set
load exactly as they would without relift.

# Overview

relift is built around four pieces:

  - Registry: process-wide install/uninstall of the rewriting machinery
  - Store: a fingerprint cache persisting rewritten source on disk
  - SourceTransformer: the pluggable rewrite capability
  - Executor: the pluggable compile-and-run capability (yaegi by default)

A load resolves the source file, fingerprints it (content signature plus
configuration tag), and consults the store. On a hit the cached text runs
directly; on a miss the transformer runs, the result is persisted, then
executed. A transform failure fails the load — raw source is never executed
as a fallback. A cache write failure only costs speed: the load continues
with the in-memory text.

# Cache Layout

Entries live in a __liftcache__ marker directory next to each source
directory (or under a mirror tree when a cache root is configured):

	proj/
	  mod.go
	  __liftcache__/
	    mod.relift-1a2b3c4d.go    rewritten source
	    mod.relift-1a2b3c4d.json  recorded fingerprint

The tag in the filename is derived from the canonical configuration, so
entries from different rule selections never collide. Writes go through a
temp file and rename, so concurrent processes never observe a torn entry.

# Basic Usage

	reg := relift.New()
	if err := reg.Install([]string{"/proj"}, relift.Config{NoFix: []string{"errorf"}}); err != nil {
	    log.Fatal(err)
	}
	defer reg.Uninstall()

	mod, err := reg.Load(ctx, "mod")
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(mod.CachePath)      // where the executed text lives
	fmt.Println(string(mod.Source())) // the executed text itself

Installing twice with equal arguments is a no-op; installing with different
arguments returns ErrConfigConflict. Uninstall is always safe to call.

# Rules

The built-in transformer applies named rewrite rules in a fixed order.
Config.Fix selects rules (empty means all), Config.NoFix disables them.
Custom transformers plug in via WithTransformer; anything deterministic per
(source, config) pair works, and determinism is what makes lock-free
cross-process caching sound.
*/
package relift
