package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// загрузка файлов
	IOInfo          Code = 1000
	IOLoadFileError Code = 1001

	// разбор LLVM IR
	ParseInfo    Code = 2000
	ParseIRError Code = 2001

	// проверки вызовов
	CheckInfo             Code = 4000
	CheckArityMismatch    Code = 4001
	CheckTypeMismatch     Code = 4002
	CheckUnresolvedCallee Code = 4003

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		IOInfo:                "I/O information",
		IOLoadFileError:       "I/O load file error",
		ParseInfo:             "IR parser information",
		ParseIRError:          "malformed LLVM IR",
		CheckInfo:             "Call check information",
		CheckArityMismatch:    "call argument count differs from the callee's parameter count",
		CheckTypeMismatch:     "call argument type differs from the callee's parameter type",
		CheckUnresolvedCallee: "callee could not be resolved statically",
		ObsInfo:               "Observability information",
		ObsTimings:            "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PRS%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CHK%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
