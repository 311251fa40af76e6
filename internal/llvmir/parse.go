package llvmir

import (
	"fmt"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

// Parse reads textual LLVM IR. path only labels errors.
func Parse(path string, content []byte) (m *ir.Module, err error) {
	// парсер llir местами паникует на битом вводе
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("%s: malformed LLVM IR: %v", path, r)
		}
	}()
	m, err = asm.ParseBytes(path, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Summary counts what a module holds; used for trace details and timings notes.
type Summary struct {
	Defined  int
	Declared int
	Calls    int
}

// Summarize walks m once and counts functions and call instructions.
func Summarize(m *ir.Module) Summary {
	var s Summary
	if m == nil {
		return s
	}
	for _, f := range m.Funcs {
		if IsDeclaration(f) {
			s.Declared++
		} else {
			s.Defined++
		}
		for _, b := range f.Blocks {
			for _, inst := range b.Insts {
				if _, ok := inst.(*ir.InstCall); ok {
					s.Calls++
				}
			}
		}
	}
	return s
}
