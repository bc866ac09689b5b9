package runtime

// The runtime names are part of the output contract: generated code calls
// them, so they must match whatever runtime the output targets.

// RequireRef is the internal module loader. Calling it with a module id
// returns a loader closure; for a dynamic import the closure is immediately
// applied to ImportRef, yielding a promise of the module's namespace.
const RequireRef = "__bundlekit_require__"

// ImportRef is the import-binding marker passed alongside dynamic internal
// loads so the loader knows to produce an ESM namespace object.
const ImportRef = "__bundlekit_import__"

// RegisterRef wraps each bundled module's body in the output.
const RegisterRef = "__bundlekit_register__"

// Code is the runtime prologue emitted at the top of an entry chunk. It is
// synthetic output: no source map section ever attributes it to user code.
const Code = `var __bundlekit_modules__ = Object.create(null);
var __bundlekit_cache__ = Object.create(null);
var __bundlekit_import__ = Symbol("bundlekit.import");

function __bundlekit_register__(id, body) {
	__bundlekit_modules__[id] = body;
}

function __bundlekit_require__(id) {
	return function (binding) {
		var cached = __bundlekit_cache__[id];
		if (!cached) {
			var body = __bundlekit_modules__[id];
			if (!body) {
				return Promise.reject(new Error('module "' + id + '" is not registered'));
			}
			var module = { exports: Object.create(null) };
			body(module, module.exports, __bundlekit_require__);
			cached = __bundlekit_cache__[id] = module;
		}
		if (binding === __bundlekit_import__) {
			return Promise.resolve(cached.exports);
		}
		return cached.exports;
	};
}
`
