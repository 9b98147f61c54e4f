package evaluator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rafibayer/puffin/object"
	"github.com/rafibayer/puffin/parser"
)

type testItem struct {
	input string
	want  string
}

// runValue parses input, evaluates each statement with REPL semantics,
// and returns the rendering of the last statement's value.
func runValue(t *testing.T, input string) string {
	t.Helper()
	program, errors := parser.Parse("test", input)
	if len(errors) > 0 {
		t.Fatalf("parse error in %q: %s", input, errors[0].Inspect())
	}
	c := NewContext(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	env := NewGlobalEnvironment()
	var result object.Object = object.NULL
	for _, stmt := range program.Statements {
		result = EvalRepl(stmt, c, env)
		if result.Type() == object.ERROR_OBJ {
			return result.(*object.Error).Inspect()
		}
	}
	return result.Inspect()
}

func runTest(t *testing.T, tests []testItem) {
	t.Helper()
	for _, test := range tests {
		got := runValue(t, test.input)
		if got != test.want {
			t.Errorf("input %q | wanted %q | got %q", test.input, test.want, got)
		}
	}
}

// runProgram evaluates input as a whole program (file semantics) with
// the given stdin, returning the result and captured stdout/stderr.
func runProgram(t *testing.T, input, stdin string) (object.Object, string, string) {
	t.Helper()
	program, errors := parser.Parse("test", input)
	if len(errors) > 0 {
		t.Fatalf("parse error in %q: %s", input, errors[0].Inspect())
	}
	var out, errOut bytes.Buffer
	c := NewContext(strings.NewReader(stdin), &out, &errOut)
	env := NewGlobalEnvironment()
	result := Eval(program, c, env)
	return result, out.String(), errOut.String()
}

func wantErrorId(t *testing.T, input, errorId string) {
	t.Helper()
	result, _, _ := runProgram(t, input, "")
	errObj, ok := result.(*object.Error)
	if !ok {
		t.Errorf("input %q | wanted %s error | got %s", input, errorId, result.Inspect())
		return
	}
	if errObj.ErrorId != errorId {
		t.Errorf("input %q | wanted %s error | got %s", input, errorId, errObj.Inspect())
	}
}

func TestLiterals(t *testing.T) {
	tests := []testItem{
		{`1;`, `1`},
		{`1.5;`, `1.5`},
		{`"hello, world!";`, `hello, world!`},
		{`"";`, ``},
		{`null;`, `null`},
		{`true;`, `1`},
		{`false;`, `0`},
		{`PI > 3.14 && PI < 3.15;`, `1`},
		{`EPSILON > 0;`, `1`},
		{`fn(a, b) { return a; };`, `<closure>`},
		{`len;`, `<builtin:len>`},
	}
	runTest(t, tests)
}

func TestArithmetic(t *testing.T) {
	tests := []testItem{
		{`1 + 2;`, `3`},
		{`5 - 2 - 1;`, `2`},
		{`2 * 3 + 4;`, `10`},
		{`2 + 3 * 4;`, `14`},
		{`(2 + 3) * 4;`, `20`},
		{`7 / 2;`, `3.5`},
		{`7 % 3;`, `1`},
		{`-5 + 10;`, `5`},
		{`-(2 + 3);`, `-5`},
		{`1 / 3;`, `0.3333333333333333`},
	}
	runTest(t, tests)
}

func TestStrings(t *testing.T) {
	tests := []testItem{
		{`"foo" + "bar";`, `foobar`},
		{`"abc" < "abd";`, `1`},
		{`"b" >= "a";`, `1`},
		{`"x" == "x";`, `1`},
		{`"x" != "y";`, `1`},
		{`len("hello");`, `5`},
	}
	runTest(t, tests)
}

func TestComparison(t *testing.T) {
	tests := []testItem{
		{`1 < 2;`, `1`},
		{`2 <= 2;`, `1`},
		{`3 > 4;`, `0`},
		{`4 >= 5;`, `0`},
		{`1 == 1;`, `1`},
		{`1 != 1;`, `0`},
		{`null == null;`, `1`},
		// variant mismatch is unequal, never an error
		{`[3] == 5;`, `0`},
		{`"1" == 1;`, `0`},
		{`null != 0;`, `1`},
		// Array/Structure/Closure compare by handle identity
		{`a = [3]; b = a; a == b;`, `1`},
		{`a = [3]; b = [3]; a == b;`, `0`},
		{`s = {x: 1}; u = s; s == u;`, `1`},
		{`s = {x: 1}; u = {x: 1}; s == u;`, `0`},
		{`f = fn() => 1; g = f; f == g;`, `1`},
	}
	runTest(t, tests)
}

func TestLogic(t *testing.T) {
	tests := []testItem{
		{`1 && 1;`, `1`},
		{`1 && 0;`, `0`},
		{`0 && 1;`, `0`},
		{`0 || 0;`, `0`},
		{`0 || 7;`, `1`},
		{`7 || 0;`, `1`},
		// logical results are always exactly 0 or 1
		{`5 && 3;`, `1`},
		{`null || 1;`, `1`},
		{`!0;`, `1`},
		{`!5;`, `0`},
		{`!null;`, `1`},
		// short-circuit: the unbound name is never evaluated
		{`0 && nosuchname;`, `0`},
		{`1 || nosuchname;`, `1`},
	}
	runTest(t, tests)
}

func TestArrays(t *testing.T) {
	tests := []testItem{
		{`[0];`, `[]`},
		{`[3];`, `[null, null, null]`},
		{`[1:6];`, `[1, 2, 3, 4, 5]`},
		{`[5:5];`, `[]`},
		{`[7:5];`, `[]`},
		{`len([4]);`, `4`},
		{`len([2:9]);`, `7`},
		{`a = [1:4]; a[0];`, `1`},
		{`a = [1:4]; a[2];`, `3`},
		{`a = [3]; a[1] = 42; a;`, `[null, 42, null]`},
		{`a = [3]; a[1] = 42; len(a);`, `3`},
		{`a = [1:4]; a[0] += 10; a;`, `[11, 2, 3]`},
		{`a = [2]; a[0] = [2]; a[0][1] = 9; a;`, `[[null, 9], null]`},
	}
	runTest(t, tests)
}

func TestStructures(t *testing.T) {
	tests := []testItem{
		{`{};`, `{}`},
		{`{fieldname: 123};`, `{fieldname: 123}`},
		{`{a: 1, b: "two"};`, `{a: 1, b: two}`},
		{`u = {name: "R"}; u.name;`, `R`},
		{`u = {name: "R"}; u.age = 22; u;`, `{name: R, age: 22}`},
		{`u = {a: 1}; u.a = 5; u;`, `{a: 5}`},
		{`u = {a: 1}; u.a += 5; u.a;`, `6`},
		{`len({a: 1, b: 2});`, `2`},
		// field order is stable: updates keep position, creations append
		{`u = {a: 1, b: 2}; u.a = 9; u.c = 3; u;`, `{a: 9, b: 2, c: 3}`},
		{`u = {inner: {x: 1}}; u.inner.x = 2; u;`, `{inner: {x: 2}}`},
	}
	runTest(t, tests)
}

func TestSharedHandles(t *testing.T) {
	tests := []testItem{
		{`a = [3]; b = a; b[0] = 1; a[0];`, `1`},
		{`s = {x: 1}; u = s; u.x = 2; s.x;`, `2`},
		{`a = [1]; f = fn(arr) { arr[0] = 99; }; f(a); a[0];`, `99`},
		// Num/String/Null are copied by value
		{`x = 1; f = fn(n) { n = 2; }; f(x); x;`, `1`},
		{`s = "a"; f = fn(v) { v = "b"; }; f(s); s;`, `a`},
		{`a = [1:3]; push(a, 3); b = a; pop(b); a;`, `[1, 2]`},
	}
	runTest(t, tests)
}

func TestClosures(t *testing.T) {
	tests := []testItem{
		{`id = fn(x) { return x; }; id(7);`, `7`},
		{`add = fn(a, b) => a + b; add(3, 4);`, `7`},
		{`f = fn() {}; f();`, `null`},
		{`curry_add = fn(a) { return fn(b) { return a + b; }; };
		  curry_add(10)(7);`, `17`},
		// mutations in the defining frame are visible to the closure
		{`x = 1; f = fn() => x; x = 2; f();`, `2`},
		// and the closure can mutate its defining frame
		{`make_counter = fn() { count = 0; return fn() { count += 1; return count; }; };
		  c = make_counter(); c(); c();`, `2`},
		// two counters do not share state
		{`make_counter = fn() { count = 0; return fn() { count += 1; return count; }; };
		  c = make_counter(); d = make_counter(); c(); c(); d();`, `1`},
		// recursion through the bound name
		{`fact = fn(n) { if (n <= 1) { return 1; } return n * fact(n - 1); };
		  fact(5);`, `120`},
		{`fib = fn(n) { if (n < 2) { return n; } return fib(n - 1) + fib(n - 2); };
		  fib(10);`, `55`},
	}
	runTest(t, tests)
}

func TestReceivers(t *testing.T) {
	tests := []testItem{
		{`counter = {count: 0, inc: fn(self) { self.count += 1; }};
		  counter.inc(); counter.inc(); counter.count;`, `2`},
		{`v = {x: 3, y: 4, norm: fn(self) => sqrt(self.x * self.x + self.y * self.y)};
		  v.norm();`, `5`},
	}
	runTest(t, tests)
}

func TestControlFlow(t *testing.T) {
	tests := []testItem{
		{`x = 1; if (x) { x = 2; } x;`, `2`},
		{`x = 1; if (0) { x = 2; } x;`, `1`},
		{`x = 0; if (x) { x = 1; } else { x = 2; } x;`, `2`},
		{`x = 0; while (x < 5) { x += 1; } x;`, `5`},
		{`s = 0; for (i = 0; i < 5; i += 1) { s += i; } s;`, `10`},
		{`s = 0; for (i in [1:6]) { s += i; } s;`, `15`},
		{`s = ""; for (w in ["a":0]) { s = "x"; } s;`, `ValueError: array range bounds must be integers, got [a:0]`},
		// a bare expression is allowed as the for step
		{`a = [3]; n = 0; for (i = 0; i < len(a); i = i + 1) { n += 1; } n;`, `3`},
		// return inside a loop stops the function
		{`first = fn(a) { for (e in a) { return e; } return null; }; first([5:8]);`, `5`},
	}
	runTest(t, tests)
}

func TestScoping(t *testing.T) {
	tests := []testItem{
		// assignments to existing names write through block frames
		{`x = 1; if (1) { x = 2; } x;`, `2`},
		{`x = 1; while (x < 3) { x += 1; } x;`, `3`},
		// new names created inside a frame die with it
		{`if (1) { y = 1; } y;`, `NameError: unbound name 'y'`},
		{`for (i = 0; i < 3; i += 1) { } i;`, `NameError: unbound name 'i'`},
		{`for (e in [3]) { } e;`, `NameError: unbound name 'e'`},
		// the loop variable is fresh per iteration
		{`fs = [0]; for (i in [0:3]) { push(fs, fn() => i); } fs[2]();`, `2`},
	}
	runTest(t, tests)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input   string
		errorId string
	}{
		{`nosuchname;`, "NameError"},
		{`len = 5;`, "RebindBuiltin"},
		{`PI = 3;`, "RebindBuiltin"},
		{`true = 2;`, "RebindBuiltin"},
		{`1 + "a";`, "TypeError"},
		{`"a" + 1;`, "TypeError"},
		{`"a" - "b";`, "TypeError"},
		{`-"a";`, "TypeError"},
		{`if ("s") { }`, "TypeError"},
		{`[1:3] && 1;`, "TypeError"},
		{`x = 5; x[0];`, "TypeError"},
		{`x = 5; x.field;`, "TypeError"},
		{`x = 5; x();`, "TypeError"},
		{`f = fn(a) => a; f();`, "ArityError"},
		{`f = fn() => 1; f(2);`, "ArityError"},
		{`a = [2]; a[2];`, "IndexError"},
		{`a = [2]; a[0.5];`, "IndexError"},
		{`a = [2]; a[-1];`, "IndexError"},
		{`a = [2]; a[3] = 1;`, "IndexError"},
		{`u = {a: 1}; u.b;`, "FieldError"},
		{`u = {a: 1}; u.b += 1;`, "FieldError"},
		{`1 / 0;`, "ValueError"},
		{`1 % 0;`, "ValueError"},
		{`[-1];`, "ValueError"},
		{`[1.5];`, "ValueError"},
		{`[1.5:3];`, "ValueError"},
		{`pop([0]);`, "ValueError"},
		{`1 = 2;`, "InvalidAssignTarget"},
		{`f() = 2;`, "InvalidAssignTarget"},
		{`return 1;`, "ReturnOutsideFunction"},
		{`if (1) { return 1; }`, "ReturnOutsideFunction"},
		{`x += 1;`, "NameError"},
	}
	for _, test := range tests {
		wantErrorId(t, test.input, test.errorId)
	}
}

func TestStackOverflow(t *testing.T) {
	wantErrorId(t, `f = fn() { return f(); }; f();`, "StackOverflow")
}

func TestPrintOutput(t *testing.T) {
	tests := []testItem{
		{`print(1, 2, 3);`, "1 2 3"},
		{`print("a"); print("b");`, "ab"},
		{`println("hello");`, "hello\n"},
		{`println(1, "two", [3]);`, "1 two [null, null, null]\n"},
		{`println([1:4]);`, "[1, 2, 3]\n"},
		{`println({a: 1, b: {c: 2}});`, "{a: 1, b: {c: 2}}\n"},
		{`println(null);`, "null\n"},
		{`println(fn() => 1);`, "<closure>\n"},
		{`println(str);`, "<builtin:str>\n"},
		{`println();`, "\n"},
	}
	for _, test := range tests {
		_, out, _ := runProgram(t, test.input, "")
		if diff := cmp.Diff(test.want, out); diff != "" {
			t.Errorf("input %q | stdout mismatch (-want +got):\n%s", test.input, diff)
		}
	}
}

// The end-to-end scenarios.

func TestScenarioFactorial(t *testing.T) {
	program := `
// computes the factorial of a number read from input
fact = fn(n) {
    if (n <= 1) {
        return 1;
    }
    return n * fact(n - 1);
};

num = input_num("Enter a number: ");
println(fact(num));
`
	result, out, _ := runProgram(t, program, "5\n")
	if isError(result) {
		t.Fatalf("unexpected error: %s", result.Inspect())
	}
	want := "Enter a number: 120\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarioCurriedAdd(t *testing.T) {
	program := `curry_add = fn(a) { return fn(b) { return a + b; }; };
println(curry_add(10)(7));`
	_, out, _ := runProgram(t, program, "")
	if out != "17\n" {
		t.Errorf("wanted %q, got %q", "17\n", out)
	}
}

func TestScenarioAliasMutation(t *testing.T) {
	_, out, _ := runProgram(t, `a = [3]; b = a; b[1] = 42; println(a);`, "")
	if out != "[null, 42, null]\n" {
		t.Errorf("wanted %q, got %q", "[null, 42, null]\n", out)
	}
}

func TestScenarioStructureGrowth(t *testing.T) {
	program := `u = {name: "R"}; u.age = 22; u.contact = {email: "x"}; println(u);`
	_, out, _ := runProgram(t, program, "")
	if out != "{name: R, age: 22, contact: {email: x}}\n" {
		t.Errorf("wanted %q, got %q", "{name: R, age: 22, contact: {email: x}}\n", out)
	}
}

func TestScenarioRangeSum(t *testing.T) {
	_, out, _ := runProgram(t, `s = 0; for (i in [1:6]) { s += i; } println(s);`, "")
	if out != "15\n" {
		t.Errorf("wanted %q, got %q", "15\n", out)
	}
}

func TestScenarioRebindBuiltin(t *testing.T) {
	result, _, _ := runProgram(t, `len = 5;`, "")
	errObj, ok := result.(*object.Error)
	if !ok || errObj.ErrorId != "RebindBuiltin" {
		t.Fatalf("wanted RebindBuiltin, got %s", result.Inspect())
	}
	if !strings.Contains(errObj.Describe(), "RebindBuiltin") {
		t.Errorf("diagnostic %q does not name RebindBuiltin", errObj.Describe())
	}
}

func TestErrorBuiltinTerminates(t *testing.T) {
	result, out, errOut := runProgram(t, `println("before"); error("boom"); println("after");`, "")
	errObj, ok := result.(*object.Error)
	if !ok || errObj.ErrorId != object.UserErrorId {
		t.Fatalf("wanted %s, got %s", object.UserErrorId, result.Inspect())
	}
	if out != "before\n" {
		t.Errorf("execution continued after error(...): stdout %q", out)
	}
	if errOut != "boom\n" {
		t.Errorf("wanted stderr %q, got %q", "boom\n", errOut)
	}
}

func TestInput(t *testing.T) {
	result, out, _ := runProgram(t, `name = input_str("who? "); println("hi " + name);`, "puffin\n")
	if isError(result) {
		t.Fatalf("unexpected error: %s", result.Inspect())
	}
	if out != "who? hi puffin\n" {
		t.Errorf("got stdout %q", out)
	}

	wantErrorId(t, `x = input_num();`, "ValueError")

	result, _, _ = runProgram(t, `x = input_num(); println(x * 2);`, "2.5\n")
	if isError(result) {
		t.Fatalf("unexpected error: %s", result.Inspect())
	}
}

// str on a Num re-parses to the same Num.
func TestNumRoundTrip(t *testing.T) {
	program := `
ok = 1;
for (i in [0:200]) {
    n = i * 7 - 300;
    if (input_num() != n) {
        ok = 0;
    }
}
println(ok);
`
	// input_num reads the rendering of each n back from stdin.
	var stdin strings.Builder
	for i := 0; i < 200; i++ {
		n := i*7 - 300
		stdin.WriteString(object.FormatNum(float64(n)) + "\n")
	}
	_, out, _ := runProgram(t, program, stdin.String())
	if out != "1\n" {
		t.Errorf("round-trip failed: %q", out)
	}
}
