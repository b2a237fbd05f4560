// Package codegen implements the matching-path emitter (spec.md §4.3,
// component C3) and backtracking-path emitter (§4.4, component C4): the
// recursive walk over a compiled opcode stream (jit/bytecode) that emits
// an assembled program (jit/asm) a jit/vm.Thread can execute.
//
// The two emitters are not separate passes here. Exactly as
// pcre_jit_compile.c pairs compile_*_matchingpath with
// compile_*_backtrackingpath one construct at a time, this package's
// compile* functions emit a construct's forward path and its recovery
// path together, recursing into children in between.
//
// spec.md §3 describes the backtrack record pcre_jit_compile.c threads
// through a construct's two passes as a polymorphic variant (common
// header fields, plus fields specific to bracket/iterator/assert/...).
// That shape exists to let the matching-path pass finish building a tree
// of records before the backtracking-path pass walks it a second time.
// This package never needs that: a construct's own matching-path code and
// backtracking-path code are emitted back to back, in the same call, so
// whatever a backtracking-path needs from its matching-path sibling is
// still sitting in local variables (bodyStart, bodyFail, captureNum, ...)
// when it's needed — there's no second pass to hand a record to. What
// spec.md models as record fields are local variables here; what it
// models as "NextBacktracks"/"TopBacktracks" are the *asm.JumpList values
// every compile* function threads through its parameters and return
// values. A struct with one field per construct kind would just be a
// worse way to pass the same values around.
package codegen
