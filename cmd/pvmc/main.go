package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/amarmaduke/pvm"
)

func main() {
	var (
		grammarPath = flag.String("grammar", "", "Path to the grammar file")
		inputPath   = flag.String("input", "", "Path to the input file to match")
		maxSteps    = flag.Int("max-steps", 0, "Instruction budget, 0 disables it")
		disasm      = flag.Bool("disasm", false, "Print the compiled program instead of running it")
	)
	flag.Parse()

	if *grammarPath == "" {
		log.Fatal("grammar not informed")
	}

	cfg := pvm.NewConfig()
	cfg.SetInt("vm.max-steps", *maxSteps)

	marker := func(name string) (string, error) { return name, nil }

	machine, err := pvm.NewMachineFromPath(*grammarPath, pvm.MarkerFunc[string](marker), cfg)
	if err != nil {
		log.Fatalf("can't build machine: %s", err.Error())
	}

	if *disasm {
		fmt.Print(machine.Disassemble())
		return
	}

	if *inputPath == "" {
		log.Fatal("input not informed")
	}
	input, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("can't read input file: %s", err.Error())
	}

	spans, err := machine.Execute(input)
	if err != nil {
		log.Fatalf("%s", err.Error())
	}
	for _, sp := range spans {
		fmt.Printf("%s %d..%d\n", sp.Marker, sp.Start, sp.End)
	}
}
