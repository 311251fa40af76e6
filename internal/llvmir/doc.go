// Package llvmir feeds textual LLVM IR into the call-site checker. It parses
// .ll files with github.com/llir/llvm, walks the module in program order and
// turns each call instruction into a sigcheck.CallSite with its resolved
// callee and the source line taken from !dbg metadata.
package llvmir
