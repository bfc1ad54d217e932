package eval

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

func TestForLoop(t *testing.T) {
	ip, h := newTestInterpreter()
	env := NewEnv()

	ip.Statement(node(`{"name":"ForLoop","params":{
		"to":3,
		"func":{"name":"SaveInt","params":["slot{{i}}","i"]}
	}}`), nil, env)

	for i, key := range []string{"slot0", "slot1", "slot2"} {
		if v, ok := h.Store.Get(key); !ok || !v.Equal(value.Int(i)) {
			t.Errorf("%s = %v, want %d", key, v, i)
		}
	}
	if env.Has("i") {
		t.Error("loop counter must not leak into the caller")
	}

	cases := []struct {
		src  string
		want string
	}{
		{`{"name":"ForLoop","params":{"from":1,"to":4,"func":{"name":"Math","params":{"formula":"i * i"}}}}`, `[1,4,9]`},
		{`{"name":"ForLoop","params":{"from":3,"to":0,"step":-1,"var":"k","func":"k"}}`, `[3,2,1]`},
		{`{"name":"ForLoop","params":[0,2,"i"]}`, `[0,1]`},
		{`{"name":"ForLoop","params":{"from":5,"to":5,"func":"i"}}`, `[]`},
	}
	for _, tc := range cases {
		got := ip.Expression(node(tc.src), nil, nil)
		if diff := cmp.Diff(node(tc.want), got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tc.src, diff)
		}
	}
}

func TestForLoopBounds(t *testing.T) {
	ip, _ := newTestInterpreter(WithMaxIterations(5))

	got := ip.Expression(node(`{"name":"ForLoop","params":{"to":1000,"func":"i"}}`), nil, nil)
	if got.Len() != 5 {
		t.Errorf("expected the loop capped at 5 iterations, got %d", got.Len())
	}

	zero := node(`{"name":"ForLoop","params":{"to":3,"step":0,"func":"i"}}`)
	if diff := cmp.Diff(zero, ip.Expression(zero, nil, nil)); diff != "" {
		t.Errorf("zero step should fail and pass through (-want +got):\n%s", diff)
	}
}

func TestWaitSnapshotsEnv(t *testing.T) {
	ip, h := newTestInterpreter()
	sched := h.Scheduler.(*host.ManualScheduler)
	env := EnvOf(map[string]any{"x": 1})

	ip.Statement(node(`{"name":"Wait","params":{
		"seconds":2,
		"func":[
			{"name":"SaveString","params":["seen","x"]},
			{"name":"CacheVariable","params":["inner",true]}
		]
	}}`), nil, env)
	env.Set("x", value.String("changed"))

	if n := sched.Advance(time.Second); n != 0 {
		t.Fatalf("nothing should run before 2s, ran %d", n)
	}
	if _, ok := h.Store.Get("seen"); ok {
		t.Fatal("body ran early")
	}

	sched.Advance(time.Second)
	if v, _ := h.Store.Get("seen"); !v.Equal(value.String("1")) {
		t.Errorf("body should see the snapshot, seen = %v", v)
	}
	if env.Has("inner") {
		t.Error("deferred body must not write into the caller's env")
	}
}

func TestStringMutations(t *testing.T) {
	ip, _ := newTestInterpreter()
	cases := []struct {
		src  string
		want value.Value
	}{
		{`{"name":"RemoveAt","params":["héllo","end"]}`, value.String("héll")},
		{`{"name":"RemoveAt","params":["héllo",1]}`, value.String("hllo")},
		{`{"name":"RemoveAt","params":["héllo",1,3]}`, value.String("ho")},
		{`{"name":"RemoveAt","params":["abc",7]}`, value.String("abc")},
		{`{"name":"RemoveAt","params":["","end"]}`, value.String("")},
		{`{"name":"Insert","params":["abc","end","!"]}`, value.String("abc!")},
		{`{"name":"Insert","params":["abc",0,">"]}`, value.String(">abc")},
		{`{"name":"Insert","params":["abc",9,"?"]}`, value.String("abc")},
		{`{"name":"Replace","params":{"value":"a-b-c","old":"-","with":"+"}}`, value.String("a+b+c")},
		{`{"name":"Replace","params":{"value":"abc","index":"end","with":"X"}}`, value.String("abX")},
		{`{"name":"Replace","params":{"value":"abc","index":0,"with":"ZZ"}}`, value.String("ZZbc")},
		{`{"name":"Substring","params":["nodescript",4]}`, value.String("script")},
		{`{"name":"Substring","params":["nodescript",0,4]}`, value.String("node")},
		{`{"name":"Substring","params":["nodescript",4,1e300]}`, value.String("script")},
		{`{"name":"RemoveAt","params":["abc",1,1e300]}`, value.String("a")},
		{`{"name":"RemoveAt","params":["abc",1e300]}`, value.String("abc")},
		{`{"name":"Concat","params":["Level ",3,"!"]}`, value.String("Level 3!")},
		{`{"name":"Length","params":["héllo"]}`, value.Int(5)},
		{`{"name":"Length","params":[[1,2,3]]}`, value.Int(3)},
		{`{"name":"Upper","params":["abc"]}`, value.String("ABC")},
		{`{"name":"Lower","params":{"value":"ABC"}}`, value.String("abc")},
		{`{"name":"ToNumber","params":[" 12.5 "]}`, value.Number(12.5)},
		{`{"name":"ToNumber","params":["twelve"]}`, value.Null()},
		{`{"name":"ToString","params":[3]}`, value.String("3")},
		{`{"name":"Array","params":[{"name":"True"},"x"]}`, node(`[true,"x"]`)},
	}
	for _, tc := range cases {
		got := ip.Expression(node(tc.src), nil, nil)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tc.src, diff)
		}
	}
}

func TestMath(t *testing.T) {
	ip, _ := newTestInterpreter()
	env := EnvOf(map[string]any{
		"base":  10,
		"extra": "5",
		"level": "3",
		"name":  "Ada",
	})
	cases := []struct {
		src  string
		want value.Value
	}{
		{`{"name":"Math","params":{"formula":"base * 2 + bonus","vars":{"bonus":"extra"}}}`, value.Int(25)},
		{`{"name":"Math","params":{"formula":"level + 1"}}`, value.Int(4)},
		{`{"name":"Math","params":{"formula":"base","vars":{"base":1}}}`, value.Int(1)},
		{`{"name":"Math","params":["max(base, 12) - abs(-2)"]}`, value.Int(10)},
	}
	for _, tc := range cases {
		got := ip.Expression(node(tc.src), nil, env)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tc.src, diff)
		}
	}

	bad := node(`{"name":"Math","params":{"formula":"name + 1"}}`)
	if diff := cmp.Diff(bad, ip.Expression(bad, nil, env)); diff != "" {
		t.Errorf("non-numeric variable should leave the node (-want +got):\n%s", diff)
	}
}

func TestComparisons(t *testing.T) {
	ip, _ := newTestInterpreter()
	env := EnvOf(map[string]any{"score": 12, "name": "Ada", "tags": []any{"a", "b"}})
	cases := map[string]bool{
		`{"name":"Equals","params":["score",12]}`:             true,
		`{"name":"Equals","params":["score","12"]}`:           true,
		`{"name":"Equals","params":["name","Ada"]}`:           true,
		`{"name":"NotEquals","params":["name","Bob"]}`:        true,
		`{"name":"Greater","params":["score",10]}`:            true,
		`{"name":"Greater","params":["score","name"]}`:        false,
		`{"name":"LessOrEqual","params":["score",12]}`:        true,
		`{"name":"Less","params":["apple","banana"]}`:         true,
		`{"name":"GreaterOrEqual","params":[1]}`:              false,
		`{"name":"Contains","params":["name","d"]}`:           true,
		`{"name":"Contains","params":["tags","b"]}`:           true,
		`{"name":"Contains","params":["tags","c"]}`:           false,
		`{"name":"StartsWith","params":["name","A"]}`:         true,
		`{"name":"EndsWith","params":["name","x"]}`:           false,
		`{"name":"IsEmpty","params":[""]}`:                    true,
		`{"name":"IsEmpty","params":["tags"]}`:                false,
		`{"name":"IsNull","params":["missing"]}`:              false,
		`{"name":"IsNull","params":[null]}`:                   true,
		`{"name":"HasVariable","params":["score"]}`:           true,
		`{"name":"HasVariable","params":["missing"]}`:         false,
		`{"name":"And","params":["True",{"name":"HasVariable","params":["name"]}]}`: true,
		`{"name":"And","params":{"conditions":["True","False"]}}`:                   false,
		`{"name":"Or","params":["False","!False"]}`:                                  true,
		`{"name":"Bool","params":["score"]}`:                                         true,
		`{"name":"Bool","params":["false"]}`:                                         false,
		`{"name":"Bool","params":[["False",["True"]]]}`:                              true,
	}
	for src, want := range cases {
		if got := ip.Condition(node(src), nil, env); got != want {
			t.Errorf("Condition(%s) = %v, want %v", src, got, want)
		}
	}
}

func TestIfExpression(t *testing.T) {
	ip, _ := newTestInterpreter()
	env := EnvOf(map[string]any{"hp": 0})
	got := ip.Expression(node(`{"name":"If","params":{
		"if":{"name":"Greater","params":["hp",0]},
		"then":"alive",
		"else":{"name":"If","params":[{"name":"Equals","params":["hp",0]},"down","gone"]}
	}}`), nil, env)
	if !got.Equal(value.String("down")) {
		t.Errorf("expected down, got %v", got)
	}
}

func TestIfChain(t *testing.T) {
	ip, _ := newTestInterpreter()
	chain := `{"name":"If","params":[[
		{"if":{"name":"Greater","params":["hp",50]},"then":"healthy"},
		{"if":{"name":"Greater","params":["hp",0]},"then":"hurt"}
	],"down"]}`
	cases := map[int]string{80: "healthy", 20: "hurt", 0: "down"}
	for hp, want := range cases {
		got := ip.Expression(node(chain), nil, EnvOf(map[string]any{"hp": hp}))
		if !got.Equal(value.String(want)) {
			t.Errorf("hp %d: got %v, want %s", hp, got, want)
		}
	}

	env := EnvOf(map[string]any{"hp": 20})
	ip.Statement(node(`{"name":"If","params":{
		"branches":[
			{"if":{"name":"Greater","params":["hp",50]},"then":{"name":"CacheVariable","params":["state","healthy"]}},
			{"if":{"name":"Greater","params":["hp",0]},"then":{"name":"CacheVariable","params":["state","hurt"]}}
		],
		"else":{"name":"CacheVariable","params":["state","down"]}
	}}`), nil, env)
	if v, _ := env.Get("state"); !v.Equal(value.String("hurt")) {
		t.Errorf("state = %v, want hurt", v)
	}
}

func TestMathFormulaIsLiteral(t *testing.T) {
	ip, _ := newTestInterpreter()
	env := EnvOf(map[string]any{"score": 4})
	if got := ip.Expression(node(`{"name":"Math","params":["score * 2"]}`), nil, env); !got.Equal(value.Int(8)) {
		t.Errorf("got %v, want 8", got)
	}
	templated := node(`{"name":"Math","params":["{{score}} * 2"]}`)
	if diff := cmp.Diff(templated, ip.Expression(templated, nil, env)); diff != "" {
		t.Errorf("formula text should not be template expanded (-want +got):\n%s", diff)
	}
}

func TestHostBuiltins(t *testing.T) {
	ip, h := newTestInterpreter()
	launcher := &host.RecordingLauncher{}
	h.Launcher = launcher
	h.Version = "v1.4.0"
	h.Progress.(*host.MemoryProgress).Complete("1-1", 3)
	env := NewEnv()

	ip.Statement(node(`[
		{"name":"SetBool","params":["Subtitles",true]},
		{"name":"SetInt","params":["Volume","7"]},
		{"name":"LoadScene","params":["Title"]},
		{"name":"SaveNode","params":["checkpoint",{"name":"LoadScene","params":["Cave"]}]},
		{"name":"SaveFloat","params":["time",12.5]},
		{"name":"SaveBool","params":["met_ada","True"]},
		{"name":"SaveString","params":["temp","x"]},
		{"name":"DeleteSave","params":["temp"]},
		{"name":"OpenURL","params":["https://example.com/news"]}
	]`), nil, env)

	checks := map[string]bool{
		`{"name":"Setting","params":["Subtitles"]}`:     true,
		`{"name":"Setting","params":["Volume"]}`:        true,
		`{"name":"Setting","params":["Missing"]}`:       false,
		`{"name":"SaveExists","params":["checkpoint"]}`: true,
		`{"name":"SaveExists","params":["temp"]}`:       false,
		`{"name":"LoadBool","params":["met_ada"]}`:      true,
		`{"name":"LevelCompleted","params":["1-1"]}`:    true,
		`{"name":"LevelCompleted","params":["1-2"]}`:    false,
		`{"name":"RankAtLeast","params":["1-1",2]}`:     true,
		`{"name":"RankAtLeast","params":["1-1",4]}`:     false,
		`{"name":"VersionAtLeast","params":["1.3"]}`:    true,
		`{"name":"VersionAtLeast","params":["v1.4.1"]}`: false,
		`{"name":"VersionBelow","params":["2.0.0"]}`:    true,
		`{"name":"Chance","params":[0]}`:                false,
		`{"name":"Chance","params":[1]}`:                true,
		`{"name":"AssetExists","params":["x.json"]}`:    false,
	}
	for src, want := range checks {
		if got := ip.Condition(node(src), nil, env); got != want {
			t.Errorf("Condition(%s) = %v, want %v", src, got, want)
		}
	}

	values := []struct {
		src  string
		want value.Value
	}{
		{`{"name":"GetInt","params":["Volume"]}`, value.Int(7)},
		{`{"name":"GetBool","params":["Missing",false]}`, value.Bool(false)},
		{`{"name":"LoadFloat","params":["time"]}`, value.Number(12.5)},
		{`{"name":"LoadInt","params":["time"]}`, value.Int(12)},
		{`{"name":"LoadString","params":["missing","fallback"]}`, value.String("fallback")},
		{`{"name":"LoadNode","params":["checkpoint"]}`, node(`{"name":"LoadScene","params":["Cave"]}`)},
		{`{"name":"Rank","params":["1-1"]}`, value.Int(3)},
		{`{"name":"Rank","params":["9-9"]}`, value.Null()},
		{`{"name":"Version"}`, value.String("v1.4.0")},
	}
	for _, tc := range values {
		got := ip.Expression(node(tc.src), nil, env)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tc.src, diff)
		}
	}

	if diff := cmp.Diff([]string{"Title"}, h.Navigator.(*host.MemoryNavigator).History()); diff != "" {
		t.Errorf("scene history (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://example.com/news"}, launcher.Opened); diff != "" {
		t.Errorf("opened urls (-want +got):\n%s", diff)
	}

	// a saved node can be replayed as a statement
	ip.Statement(node(`{"name":"Run","params":[{"name":"LoadNode","params":["checkpoint"]}]}`), nil, env)
	if cur := h.Navigator.(*host.MemoryNavigator).Current(); cur != "Cave" {
		t.Errorf("expected the saved checkpoint to load Cave, got %q", cur)
	}
}

func TestMissingCollaboratorsSkip(t *testing.T) {
	ip := New(WithLogger(quietLogger()))
	env := NewEnv()

	ip.Statement(node(`[
		{"name":"LoadScene","params":["Title"]},
		{"name":"SaveInt","params":["coins",3]},
		{"name":"Wait","params":[1,"Quit"]},
		{"name":"OpenURL","params":["https://example.com"]},
		{"name":"CacheVariable","params":["done",true]}
	]`), nil, env)

	if !env.Has("done") {
		t.Error("statements after skipped host calls should run")
	}
	if got := ip.Expression(node(`{"name":"LoadInt","params":["coins",-1]}`), nil, env); !got.Equal(value.Int(-1)) {
		t.Errorf("expected default without a store, got %v", got)
	}

	strict := New(WithLogger(quietLogger()), WithStrict(true))
	for _, name := range []string{"Asset", "AssetNode"} {
		got := strict.Expression(node(`{"name":"`+name+`","params":["motd.txt"]}`), nil, nil)
		if !got.IsNull() {
			t.Errorf("%s without assets should skip to null, got %v", name, got)
		}
	}
}

func TestAssets(t *testing.T) {
	ip, h := newTestInterpreter()
	h.Assets = host.FSAssets{FS: fstest.MapFS{
		"dialog/intro.yaml": {Data: []byte("speaker: Ada\nlines:\n  - Hello\n  - Bye\n")},
		"text/motd.txt":     {Data: []byte("Welcome back")},
	}}

	got := ip.Expression(node(`{"name":"AssetNode","params":["dialog/intro.yaml"]}`), nil, nil)
	if diff := cmp.Diff(node(`{"speaker":"Ada","lines":["Hello","Bye"]}`), got); diff != "" {
		t.Errorf("asset node (-want +got):\n%s", diff)
	}
	if got := ip.Expression(node(`{"name":"Asset","params":["text/motd.txt"]}`), nil, nil); !got.Equal(value.String("Welcome back")) {
		t.Errorf("asset text = %v", got)
	}
	if !ip.Condition(node(`{"name":"AssetExists","params":["/text/motd.txt"]}`), nil, nil) {
		t.Error("expected asset to exist")
	}
}

func TestTemplatesAndLocalization(t *testing.T) {
	ip, h := newTestInterpreter()
	h.Localizer = host.MapLocalizer{"menu.start": "Start, {{player}}"}
	h.Tokens = host.MapTokens{"Chapter": "IV"}
	h.Settings.SetInt("Volume", 8)
	env := EnvOf(map[string]any{"player": "Ada"})
	this := host.NewEntity("Hero")
	this.SetVar("hp", value.Int(40))

	cases := []struct {
		in   string
		want string
	}{
		{"loc:menu.start", "Start, Ada"},
		{"loc:menu.missing", "loc:menu.missing"},
		{"Chapter {{Chapter}}: {{player}}", "Chapter IV: Ada"},
		{"Volume <setting=Volume>, hp <local=hp>", "Volume 8, hp 40"},
		{"<color=red>{{unknown}}</color>", "<color=red>{{unknown}}</color>"},
	}
	for _, tc := range cases {
		got := ip.Expression(value.String(tc.in), this, env)
		if !got.Equal(value.String(tc.want)) {
			t.Errorf("Expression(%q) = %v, want %q", tc.in, got, tc.want)
		}
	}

	got := ip.Expression(node(`{"name":"Template","params":["player"]}`), this, env)
	if !got.Equal(value.String("player")) {
		t.Errorf("Template must not resolve variables by name, got %v", got)
	}
}

func TestBuiltinNames(t *testing.T) {
	for _, name := range []string{"CacheVariable", "ForLoop", "Switch", "If"} {
		found := false
		for _, n := range BuiltinNames(FormStatement) {
			if n == name {
				found = true
			}
		}
		if !found {
			t.Errorf("%s missing from statement built-ins", name)
		}
	}
	if n := len(BuiltinNames(FormCondition)); n == 0 {
		t.Error("no condition built-ins")
	}
}
