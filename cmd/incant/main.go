// Incant CLI - compile, inspect, and simulate spell scripts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/solenne/incant/compiler"
	"github.com/solenne/incant/library"
	"github.com/solenne/incant/manifest"
	"github.com/solenne/incant/pkg/bytecode"
	"github.com/solenne/incant/server"
	"github.com/solenne/incant/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	out := flag.String("o", "", "Write compiled bytecode (JSON word array) to this file")
	disasm := flag.Bool("disasm", false, "Print a disassembly of the compiled program")
	check := flag.Bool("check", false, "Permission-check against the permissive training catalogue")
	run := flag.Bool("run", false, "Simulate the spell")
	ticks := flag.Uint64("ticks", 120, "Ticks to simulate (with -run)")
	energy := flag.Float64("energy", 50, "Initial spell energy (with -run)")
	configDir := flag.String("config", ".", "Directory searched for spellbook.toml")
	bookPath := flag.String("library", "", "Spellbook database to save the compiled spell into")
	name := flag.String("name", "", "Spell name for -library (defaults to the file name)")
	lsp := flag.Bool("lsp", false, "Start the language server on stdio")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: incant [options] [spell-file]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles a spell script and optionally inspects, stores, or simulates it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  incant fireball.spell -o fireball.json   # Compile to wire format\n")
		fmt.Fprintf(os.Stderr, "  incant fireball.spell -disasm            # Show the bytecode\n")
		fmt.Fprintf(os.Stderr, "  incant fireball.spell -run -ticks 600    # Simulate ten seconds\n")
		fmt.Fprintf(os.Stderr, "  incant -lsp                              # Editor language server\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	sigs := bytecode.StandardSignatures()

	if *lsp {
		if err := server.NewLSP(sigs).Run(); err != nil {
			fatal("lsp: %v", err)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		fatal("%v", err)
	}

	prog, err := compiler.New(sigs).Compile(string(source))
	if err != nil {
		// The editor surface: message plus succeeded=false.
		fmt.Fprintf(os.Stderr, "compile failed: %s\n", err)
		os.Exit(1)
	}

	if *disasm {
		fmt.Print(bytecode.Disassemble(prog, sigs))
	}

	if *check {
		cat := bytecode.Permissive(sigs)
		if ok, reason := cat.Check(sigs, prog); !ok {
			fatal("not allowed: %s", reason)
		}
		fmt.Println("allowed")
	}

	if *out != "" {
		data, err := json.Marshal(prog)
		if err != nil {
			fatal("encoding: %v", err)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			fatal("%v", err)
		}
	}

	if *bookPath != "" {
		saveName := *name
		if saveName == "" {
			saveName = path
		}
		book, err := library.Open(*bookPath)
		if err != nil {
			fatal("%v", err)
		}
		defer book.Close()
		id, err := book.Save(saveName, string(source), prog)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("saved %s as %s\n", saveName, id)
	}

	if *run {
		simulate(prog, *configDir, *energy, *ticks)
	}
}

// simulate spawns a throwaway spell and drives it through the ready
// block and the requested number of ticks, reporting every cast.
func simulate(prog *bytecode.Program, configDir string, energy float64, ticks uint64) {
	sigs := bytecode.StandardSignatures()
	sp := vm.NewSpell(energy)

	if m, err := manifest.FindAndLoad(configDir); err == nil && m != nil {
		sp.Forms = m.Forms
	}

	machine, err := vm.New(vm.StandardRegistry(), sp, prog, vm.Options{
		Observer: func(code bytecode.Word, delta float64) {
			name := fmt.Sprintf("code %d", uint64(code))
			if sig, ok := sigs.ByCode(code); ok {
				name = sig.Name
			}
			fmt.Printf("cast %-16s level +%g, energy left %.3f\n", name, delta, sp.Energy)
		},
	})
	if err != nil {
		fatal("%v", err)
	}

	report := func(phase string, err error) bool {
		switch {
		case err == nil:
			return true
		case vm.IsBusiness(err):
			fmt.Printf("%s: %v\n", phase, err)
			return false
		default:
			fatal("%s: %v", phase, err)
			return false
		}
	}

	if !report("ready", machine.RunReady()) {
		return
	}
	for tick := uint64(1); tick <= ticks && !sp.Dead; tick++ {
		if !report(fmt.Sprintf("tick %d", tick), machine.RunProcessTick(tick)) {
			break
		}
	}

	fmt.Printf("final energy %.3f, speed %.3f, dead=%t\n", sp.Energy, sp.Speed(), sp.Dead)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
