package processor

import lua "github.com/yuin/gopher-lua"

func luaTableToMap(table *lua.LTable) map[string]any {
	res := make(map[string]any)
	table.ForEach(func(key, value lua.LValue) {
		res[key.String()] = convertLuaValue(value)
	})
	return res
}

func convertLuaValue(value lua.LValue) any {
	switch v := value.(type) {
	case *lua.LTable:
		// Tables are always treated as maps to keep metadata uniform.
		return luaTableToMap(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	case *lua.LNilType:
		return nil
	default:
		// Functions and userdata
		return v.String()
	}
}
