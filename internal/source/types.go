package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single IR file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Hash    [32]byte
	Flags   FileFlags
}

// Location points at a call site: the IR file that was analysed and the
// source line recovered from its debug metadata.
type Location struct {
	Path string
	Line Line
}

func (l Location) String() string {
	if l.Path == "" {
		return l.Line.String()
	}
	return l.Path + ":" + l.Line.String()
}
