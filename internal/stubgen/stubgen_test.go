// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stubgen_test

import (
	"strings"
	"testing"

	"code.hybscloud.com/msgpackrpc/internal/stubgen"
)

const sampleSrc = `package sample

type Calculator interface {
	Add(a, b int64) (int64, error)

	//mprpc:notify
	Log(msg string) error

	//mprpc:async
	SlowAdd(a, b int64) (*Future, error)
}
`

func TestGenerate_SyncMethod_CallsClientCallWithAssertion(t *testing.T) {
	t.Parallel()

	out, err := stubgen.Generate([]byte(sampleSrc), stubgen.Options{
		PackageName:   "sample",
		InterfaceName: "Calculator",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)

	if !strings.Contains(src, "type CalculatorStub struct") {
		t.Fatalf("generated source missing CalculatorStub struct:\n%s", src)
	}
	if !strings.Contains(src, "var _ Calculator = (*CalculatorStub)(nil)") {
		t.Fatalf("generated source missing interface assertion:\n%s", src)
	}
	if !strings.Contains(src, `raw, err := s.Client.Call("Add", a, b)`) {
		t.Fatalf("generated Add body missing type-asserted Call:\n%s", src)
	}
	if !strings.Contains(src, "result, _ := raw.(int64)") {
		t.Fatalf("generated Add body missing int64 assertion:\n%s", src)
	}
}

func TestGenerate_NotifyMethod_CallsClientNotify(t *testing.T) {
	t.Parallel()

	out, err := stubgen.Generate([]byte(sampleSrc), stubgen.Options{
		PackageName:   "sample",
		InterfaceName: "Calculator",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)

	if !strings.Contains(src, `s.Client.Notify("Log", msg)`) {
		t.Fatalf("generated Log body missing Notify call:\n%s", src)
	}
}

func TestGenerate_AsyncMethod_CallsClientCallAsync(t *testing.T) {
	t.Parallel()

	out, err := stubgen.Generate([]byte(sampleSrc), stubgen.Options{
		PackageName:   "sample",
		InterfaceName: "Calculator",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)

	if !strings.Contains(src, `return s.Client.CallAsync("SlowAdd", a, b)`) {
		t.Fatalf("generated SlowAdd body missing CallAsync call:\n%s", src)
	}
}

func TestGenerate_UnknownInterface_Errors(t *testing.T) {
	t.Parallel()

	_, err := stubgen.Generate([]byte(sampleSrc), stubgen.Options{
		PackageName:   "sample",
		InterfaceName: "DoesNotExist",
	})
	if err == nil {
		t.Fatalf("Generate: want error for missing interface, got nil")
	}
}

func TestGenerate_CustomStructName(t *testing.T) {
	t.Parallel()

	out, err := stubgen.Generate([]byte(sampleSrc), stubgen.Options{
		PackageName:   "sample",
		InterfaceName: "Calculator",
		StructName:    "CalcClient",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(string(out), "type CalcClient struct") {
		t.Fatalf("generated source missing custom struct name:\n%s", out)
	}
}
