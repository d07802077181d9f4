// Package rewrite maps source file paths onto the installer's target layout.
//
// The mapping is a pure function of the source path and the item kind:
// the configured source root is stripped and the kind's directory
// ("components", "hooks", "lib") is applied when the path does not
// already start with it.
//
//	registry/webgl/hooks/use-fbo.ts  (hook) -> hooks/use-fbo.ts
//	registry/webgl/fbo/double-fbo.ts (lib)  -> lib/fbo/double-fbo.ts
package rewrite
