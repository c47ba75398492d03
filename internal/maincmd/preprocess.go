package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/cpp"
	"github.com/mna/adeptc/lang/token"
)

// Preprocess runs the C preprocessor phase alone (spec section 4.1):
// directive handling and macro expansion, printing the surviving
// token stream with directives stripped.
func (c *Cmd) Preprocess(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return PreprocessFiles(ctx, stdio, targetcfg.Default(), args...)
}

// PreprocessFiles preprocesses each file independently (no #include
// resolution across files is wired here; a nil cpp.SourceFiles means
// an #include directive reports unresolved rather than reading from
// disk, the same "external collaborator is out of scope" boundary
// cpp.SourceFiles's own doc comment names).
func PreprocessFiles(ctx context.Context, stdio mainer.Stdio, target targetcfg.Target, files ...string) error {
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}

		fset := token.NewFileSet()
		f := fset.AddFile(path, len(src))
		var sink diag.List
		lex := cpp.NewLexer(f, src, &sink)
		raw := lex.Tokens()

		pp := cpp.NewPreprocessor(cpp.NewEnvironment(), nil, &sink)
		pp.InstallPredefined("201710L", target.PointerWidth, target.Endian == targetcfg.BigEndian, target.CInteger.Bits("long"), "", "")
		out := pp.ProcessFile(f, fset, raw)

		for _, tok := range out {
			fmt.Fprint(stdio.Stdout, tok.Text)
			fmt.Fprint(stdio.Stdout, " ")
		}
		fmt.Fprintln(stdio.Stdout)

		if sink.HasErrors() {
			printDiags(stdio, &sink)
			return sink.Err()
		}
	}
	return nil
}
