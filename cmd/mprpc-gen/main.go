// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command mprpc-gen reads a Go source file containing an interface
// definition and writes a *msgpackrpc.Client-backed struct implementing it.
package main

import (
	"flag"
	"log"
	"os"

	"code.hybscloud.com/msgpackrpc/internal/stubgen"
)

func main() {
	log.SetFlags(0)

	in := flag.String("in", "", "input Go file declaring the interface")
	out := flag.String("out", "", "output Go file (default stdout)")
	iface := flag.String("iface", "", "interface name to generate a stub for")
	pkg := flag.String("pkg", "main", "package name for the generated file")
	structName := flag.String("struct", "", "generated struct name (default <iface>Stub)")
	flag.Parse()

	if *in == "" || *iface == "" {
		flag.Usage()
		os.Exit(2)
	}

	src, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("mprpc-gen: %v", err)
	}

	generated, err := stubgen.Generate(src, stubgen.Options{
		PackageName:   *pkg,
		InterfaceName: *iface,
		StructName:    *structName,
	})
	if err != nil {
		log.Fatalf("mprpc-gen: %v", err)
	}

	if *out == "" {
		os.Stdout.Write(generated)
		return
	}
	if err := os.WriteFile(*out, generated, 0o644); err != nil {
		log.Fatalf("mprpc-gen: %v", err)
	}
}
