package processor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thisisjab/defscript/entity"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

const luaEntryPoint = "process_line"

type LuaStatementProcessorConfig struct {
	Name       string `yaml:"-"`
	ScriptPath string `yaml:"script-path"`
}

// LuaStatementProcessor is a processor that extracts statements based on the provided lua script.
// Provided script MUST contain a function named `process_line` which takes the raw line as a string.
// `process_line` must return 2 values:
// 1. the statement to evaluate as a string
// 2. metadata as a table, or nil
// Note that user can have access to JSON helper using `local json = require("json")`
type LuaStatementProcessor struct {
	cfg  LuaStatementProcessorConfig
	pool *sync.Pool
}

func NewLuaStatementProcessor(cfg LuaStatementProcessorConfig) (*LuaStatementProcessor, error) {
	// Load one VM up front so a broken script fails here instead of inside the pool.
	L, err := newLuaState(cfg.ScriptPath)
	if err != nil {
		return nil, err
	}

	pool := &sync.Pool{
		New: func() any {
			L, err := newLuaState(cfg.ScriptPath)
			if err != nil {
				panic(err)
			}
			return L
		},
	}
	pool.Put(L)

	return &LuaStatementProcessor{
		cfg:  cfg,
		pool: pool,
	}, nil
}

func newLuaState(scriptPath string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load anything by default
	})

	// We skip 'os' and 'io' to prevent system commands/file access
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},  // Allows 'require'
		{lua.BaseLibName, lua.OpenBase},     // Allows 'print', 'pairs', etc.
		{lua.TabLibName, lua.OpenTable},     // Allows 'table.insert', etc.
		{lua.StringLibName, lua.OpenString}, // Allows string manipulation
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// local json = require("json")
	luajson.Preload(L)

	if err := L.DoFile(scriptPath); err != nil {
		L.Close()
		return nil, fmt.Errorf("cannot load lua script: %w", err)
	}

	if _, ok := L.GetGlobal(luaEntryPoint).(*lua.LFunction); !ok {
		L.Close()
		return nil, fmt.Errorf("lua script does not define a %s function", luaEntryPoint)
	}

	return L, nil
}

func (lp *LuaStatementProcessor) Name() string {
	return lp.cfg.Name
}

func (lp *LuaStatementProcessor) Process(record entity.Evaluation) (entity.Evaluation, error) {
	L := lp.pool.Get().(*lua.LState)
	defer lp.pool.Put(L)

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(luaEntryPoint),
		NRet:    2,
		Protect: true,
	}, lua.LString(string(record.RawData)))

	if err != nil {
		return record, fmt.Errorf("lua script error: %w", err)
	}

	luaMeta := L.Get(-1)
	luaStatement := L.Get(-2)

	// Clean up stack IMMEDIATELY after extraction
	L.Pop(2)

	statement, ok := luaStatement.(lua.LString)
	if !ok || string(statement) == "" {
		return record, errors.New("lua script returned no statement")
	}

	var metadata map[string]any
	if table, ok := luaMeta.(*lua.LTable); ok {
		metadata = luaTableToMap(table)
	}

	return withStatement(record, string(statement), metadata), nil
}
