package calc

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

type builtin func(ev *evaluator, args []arg) (Value, error)

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"SUM":     fnSum,
		"AVERAGE": fnAverage,
		"MIN":     fnMin,
		"MAX":     fnMax,
		"COUNT":   fnCount,
		"COUNTA":  fnCountA,
		"PRODUCT": fnProduct,
		"ROUND":   fnRound,
		"ABS":     unaryMath("ABS", math.Abs),
		"INT":     unaryMath("INT", math.Floor),
		"FLOOR":   unaryMath("FLOOR", math.Floor),
		"CEILING": unaryMath("CEILING", math.Ceil),
		"SQRT":    fnSqrt,
		"POWER":   fnPower,
		"MOD":     fnMod,

		"IF":  fnIf,
		"AND": fnAnd,
		"OR":  fnOr,
		"NOT": fnNot,

		"CONCATENATE": fnConcatenate,
		"LEN":         fnLen,
		"UPPER":       textMap("UPPER", strings.ToUpper),
		"LOWER":       textMap("LOWER", strings.ToLower),
		"TRIM":        textMap("TRIM", func(s string) string { return strings.Join(strings.Fields(s), " ") }),
		"LEFT":        fnLeft,
		"RIGHT":       fnRight,
		"MID":         fnMid,

		"VLOOKUP": fnVLookup,
		"HLOOKUP": fnHLookup,
		"INDEX":   fnIndex,
		"MATCH":   fnMatch,

		"AI": fnAI,
	}
}

// Functions lists the supported function names in sorted order.
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func arity(name string, args []arg, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		switch {
		case min == max:
			return errorf("%s requires %d argument(s), got %d", name, min, len(args))
		case max < 0:
			return errorf("%s requires at least %d argument(s), got %d", name, min, len(args))
		default:
			return errorf("%s requires %d to %d arguments, got %d", name, min, max, len(args))
		}
	}
	return nil
}

// scalar returns the single value of an argument; a one-cell range counts.
func scalar(name string, a arg) (Value, error) {
	if a.rng == nil {
		return a.val, nil
	}
	if len(a.values) == 1 {
		return a.values[0], nil
	}
	return Value{}, errorf("%s expects a single value, got range %s", name, a.rng)
}

func numberArg(name string, a arg) (float64, error) {
	v, err := scalar(name, a)
	if err != nil {
		return 0, err
	}
	f, ok := toNumber(v)
	if !ok {
		return 0, errorf("%s expects a number, got %q", name, v.String())
	}
	return f, nil
}

func intArg(name string, a arg) (int, error) {
	f, err := numberArg(name, a)
	if err != nil {
		return 0, err
	}
	// out-of-range float conversions are implementation-defined
	f = math.Trunc(f)
	switch {
	case math.IsNaN(f):
		return 0, errorf("%s expects a number, got NaN", name)
	case f >= math.MaxInt:
		return math.MaxInt, nil
	case f <= math.MinInt:
		return math.MinInt, nil
	}
	return int(f), nil
}

func textArg(name string, a arg) (string, error) {
	v, err := scalar(name, a)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// numbers flattens args and keeps only the numeric ones.
func numbers(args []arg) []float64 {
	var out []float64
	for _, a := range args {
		for _, v := range a.flatten() {
			if f, ok := aggregateNumber(v); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

func fnSum(_ *evaluator, args []arg) (Value, error) {
	sum := 0.0
	for _, f := range numbers(args) {
		sum += f
	}
	return Number(sum), nil
}

func fnAverage(_ *evaluator, args []arg) (Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return Number(0), nil
	}
	sum := 0.0
	for _, f := range nums {
		sum += f
	}
	return Number(sum / float64(len(nums))), nil
}

func fnMin(_ *evaluator, args []arg) (Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return Number(0), nil
	}
	minVal := nums[0]
	for _, f := range nums[1:] {
		if f < minVal {
			minVal = f
		}
	}
	return Number(minVal), nil
}

func fnMax(_ *evaluator, args []arg) (Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return Number(0), nil
	}
	maxVal := nums[0]
	for _, f := range nums[1:] {
		if f > maxVal {
			maxVal = f
		}
	}
	return Number(maxVal), nil
}

func fnCount(_ *evaluator, args []arg) (Value, error) {
	return Number(float64(len(numbers(args)))), nil
}

func fnCountA(_ *evaluator, args []arg) (Value, error) {
	count := 0
	for _, a := range args {
		for _, v := range a.flatten() {
			if !v.IsEmpty() {
				count++
			}
		}
	}
	return Number(float64(count)), nil
}

func fnProduct(_ *evaluator, args []arg) (Value, error) {
	nums := numbers(args)
	if len(nums) == 0 {
		return Number(0), nil
	}
	product := 1.0
	for _, f := range nums {
		product *= f
	}
	return Number(product), nil
}

func fnRound(_ *evaluator, args []arg) (Value, error) {
	if err := arity("ROUND", args, 1, 2); err != nil {
		return Value{}, err
	}
	x, err := numberArg("ROUND", args[0])
	if err != nil {
		return Value{}, err
	}
	places := 0.0
	if len(args) == 2 {
		if places, err = numberArg("ROUND", args[1]); err != nil {
			return Value{}, err
		}
	}
	multiplier := math.Pow(10, places)
	return Number(math.Round(x*multiplier) / multiplier), nil
}

func unaryMath(name string, f func(float64) float64) builtin {
	return func(_ *evaluator, args []arg) (Value, error) {
		if err := arity(name, args, 1, 1); err != nil {
			return Value{}, err
		}
		x, err := numberArg(name, args[0])
		if err != nil {
			return Value{}, err
		}
		return Number(f(x)), nil
	}
}

func fnSqrt(_ *evaluator, args []arg) (Value, error) {
	if err := arity("SQRT", args, 1, 1); err != nil {
		return Value{}, err
	}
	x, err := numberArg("SQRT", args[0])
	if err != nil {
		return Value{}, err
	}
	if x < 0 {
		return Value{}, errorf("SQRT requires a non-negative argument")
	}
	return Number(math.Sqrt(x)), nil
}

func fnPower(_ *evaluator, args []arg) (Value, error) {
	if err := arity("POWER", args, 2, 2); err != nil {
		return Value{}, err
	}
	base, err := numberArg("POWER", args[0])
	if err != nil {
		return Value{}, err
	}
	exp, err := numberArg("POWER", args[1])
	if err != nil {
		return Value{}, err
	}
	return Number(math.Pow(base, exp)), nil
}

// fnMod follows the sign of the divisor, like spreadsheet MOD.
func fnMod(_ *evaluator, args []arg) (Value, error) {
	if err := arity("MOD", args, 2, 2); err != nil {
		return Value{}, err
	}
	x, err := numberArg("MOD", args[0])
	if err != nil {
		return Value{}, err
	}
	d, err := numberArg("MOD", args[1])
	if err != nil {
		return Value{}, err
	}
	if d == 0 {
		return Value{}, errorf("MOD: division by zero")
	}
	return Number(x - d*math.Floor(x/d)), nil
}

// fnIf takes already evaluated arguments. A comparison such as 1>0 is
// not parsed; it arrives as a non-empty string and is therefore true.
func fnIf(_ *evaluator, args []arg) (Value, error) {
	if err := arity("IF", args, 2, 3); err != nil {
		return Value{}, err
	}
	cond, err := scalar("IF", args[0])
	if err != nil {
		return Value{}, err
	}
	if truthy(cond) {
		return scalar("IF", args[1])
	}
	if len(args) == 3 {
		return scalar("IF", args[2])
	}
	return Bool(false), nil
}

// logicalValues flattens AND/OR arguments. Blank cells inside a range
// take no part; a blank scalar argument still counts as false.
func logicalValues(args []arg) []Value {
	var out []Value
	for _, a := range args {
		for _, v := range a.flatten() {
			if a.rng != nil && v.IsEmpty() {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

func fnAnd(_ *evaluator, args []arg) (Value, error) {
	for _, v := range logicalValues(args) {
		if !truthy(v) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func fnOr(_ *evaluator, args []arg) (Value, error) {
	for _, v := range logicalValues(args) {
		if truthy(v) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func fnNot(_ *evaluator, args []arg) (Value, error) {
	if err := arity("NOT", args, 1, 1); err != nil {
		return Value{}, err
	}
	v, err := scalar("NOT", args[0])
	if err != nil {
		return Value{}, err
	}
	return Bool(!truthy(v)), nil
}

func fnConcatenate(_ *evaluator, args []arg) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		for _, v := range a.flatten() {
			b.WriteString(v.String())
		}
	}
	return String(b.String()), nil
}

func fnLen(_ *evaluator, args []arg) (Value, error) {
	if err := arity("LEN", args, 1, 1); err != nil {
		return Value{}, err
	}
	s, err := textArg("LEN", args[0])
	if err != nil {
		return Value{}, err
	}
	return Number(float64(utf8.RuneCountInString(s))), nil
}

func textMap(name string, f func(string) string) builtin {
	return func(_ *evaluator, args []arg) (Value, error) {
		if err := arity(name, args, 1, 1); err != nil {
			return Value{}, err
		}
		s, err := textArg(name, args[0])
		if err != nil {
			return Value{}, err
		}
		return String(f(s)), nil
	}
}

// countArg reads the optional character count of LEFT and RIGHT.
func countArg(name string, args []arg) (int, error) {
	if len(args) < 2 {
		return 1, nil
	}
	n, err := intArg(name, args[1])
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errorf("%s: negative length", name)
	}
	return n, nil
}

func fnLeft(_ *evaluator, args []arg) (Value, error) {
	if err := arity("LEFT", args, 1, 2); err != nil {
		return Value{}, err
	}
	s, err := textArg("LEFT", args[0])
	if err != nil {
		return Value{}, err
	}
	n, err := countArg("LEFT", args)
	if err != nil {
		return Value{}, err
	}
	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	return String(string(runes[:n])), nil
}

func fnRight(_ *evaluator, args []arg) (Value, error) {
	if err := arity("RIGHT", args, 1, 2); err != nil {
		return Value{}, err
	}
	s, err := textArg("RIGHT", args[0])
	if err != nil {
		return Value{}, err
	}
	n, err := countArg("RIGHT", args)
	if err != nil {
		return Value{}, err
	}
	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	return String(string(runes[len(runes)-n:])), nil
}

func fnMid(_ *evaluator, args []arg) (Value, error) {
	if err := arity("MID", args, 3, 3); err != nil {
		return Value{}, err
	}
	s, err := textArg("MID", args[0])
	if err != nil {
		return Value{}, err
	}
	start, err := intArg("MID", args[1])
	if err != nil {
		return Value{}, err
	}
	n, err := intArg("MID", args[2])
	if err != nil {
		return Value{}, err
	}
	if start < 1 || n < 0 {
		return Value{}, errorf("MID: start must be >= 1 and length >= 0")
	}
	runes := []rune(s)
	if start > len(runes) {
		return String(""), nil
	}
	end := len(runes)
	if n < end-(start-1) {
		end = start - 1 + n
	}
	return String(string(runes[start-1 : end])), nil
}

// fnAI cannot be answered synchronously; the prompt is handed back to
// the caller through a pending result.
func fnAI(_ *evaluator, args []arg) (Value, error) {
	var parts []string
	for _, a := range args {
		for _, v := range a.flatten() {
			if s := v.String(); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return Value{}, &pendingError{prompt: strings.Join(parts, " ")}
}
