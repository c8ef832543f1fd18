package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a parsed script: match setup plus ordered steps.
type Scenario struct {
	Name  string
	Setup Setup
	Steps []Step
}

// Setup configures the match a scenario runs against.
type Setup struct {
	Players []string
	// Seed is nil when the script leaves it to the runner.
	Seed      *uint64
	Undo      int
	Allowlist []string
	Cheats    bool
	Target    int
	HandSize  int
}

// Step is one scenario action or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua file and returns the Scenario it builds.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenario runs Lua source and returns the Scenario it builds.
func LoadScenario(name, source string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = name
	}
	return scenario, nil
}

func newLuaState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)

	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{{Name: "new", Function: scenarioNew}}, 0)
	state.SetGlobal("scenario")
	return state
}

func runChunk(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return a scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned an invalid scenario")
	}
	return scenario, nil
}

func scenarioNew(state *lua.State) int {
	opts := optionalTable(state, 1)
	scenario := &Scenario{Setup: Setup{Players: []string{"p1", "p2"}}}
	if name, ok := opts["name"].(string); ok {
		scenario.Name = name
	}
	if players := stringList(opts["players"]); len(players) > 0 {
		scenario.Setup.Players = players
	}
	if seed, ok := opts["seed"].(int); ok && seed >= 0 {
		value := uint64(seed)
		scenario.Setup.Seed = &value
	}
	if undo, ok := opts["undo"].(int); ok {
		scenario.Setup.Undo = undo
	}
	if target, ok := opts["target"].(int); ok {
		scenario.Setup.Target = target
	}
	if hand, ok := opts["hand_size"].(int); ok {
		scenario.Setup.HandSize = hand
	}
	if cheats, ok := opts["cheats"].(bool); ok {
		scenario.Setup.Cheats = cheats
	}
	scenario.Setup.Allowlist = stringList(opts["allowlist"])

	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "command", Function: scenarioCommand},
	{Name: "expect_ok", Function: scenarioExpectOK},
	{Name: "expect_error", Function: scenarioExpectError},
	{Name: "expect_snapshots", Function: scenarioExpectSnapshots},
	{Name: "expect_core", Function: scenarioExpectCore},
	{Name: "expect_stream_len", Function: scenarioExpectStreamLen},
	{Name: "expect_stream", Function: scenarioExpectStream},
	{Name: "tutorial", Function: scenarioTutorial},
}

func scenarioCommand(state *lua.State) int {
	scenario := checkScenario(state)
	cmdType := strings.TrimSpace(lua.CheckString(state, 2))
	if cmdType == "" {
		lua.Errorf(state, "command type is required")
	}
	player := lua.CheckString(state, 3)
	appendStep(scenario, "command", map[string]any{
		"type":    cmdType,
		"player":  player,
		"payload": optionalTable(state, 4),
	})
	return chain(state)
}

func scenarioExpectOK(state *lua.State) int {
	appendStep(checkScenario(state), "expect_ok", nil)
	return chain(state)
}

func scenarioExpectError(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_error", map[string]any{"code": lua.CheckString(state, 2)})
	return chain(state)
}

func scenarioExpectSnapshots(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_snapshots", map[string]any{"count": lua.CheckInteger(state, 2)})
	return chain(state)
}

func scenarioExpectCore(state *lua.State) int {
	scenario := checkScenario(state)
	field := lua.CheckString(state, 2)
	lua.CheckAny(state, 3)
	appendStep(scenario, "expect_core", map[string]any{"field": field, "value": luaToGo(state, 3)})
	return chain(state)
}

func scenarioExpectStreamLen(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_stream_len", map[string]any{"count": lua.CheckInteger(state, 2)})
	return chain(state)
}

func scenarioExpectStream(state *lua.State) int {
	scenario := checkScenario(state)
	filter := lua.CheckString(state, 2)
	appendStep(scenario, "expect_stream", map[string]any{"filter": filter, "count": lua.CheckInteger(state, 3)})
	return chain(state)
}

func scenarioTutorial(state *lua.State) int {
	scenario := checkScenario(state)
	manifest := lua.CheckString(state, 2)
	player := lua.OptString(state, 3, "")
	appendStep(scenario, "tutorial", map[string]any{"manifest": manifest, "player": player})
	return chain(state)
}

// chain returns the receiver so steps can be written as s:a():b().
func chain(state *lua.State) int {
	state.PushValue(1)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo converts sequences to []any and everything else to a map.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if idx, ok := state.ToInteger(-2); ok && state.TypeOf(-2) == lua.TypeNumber && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
