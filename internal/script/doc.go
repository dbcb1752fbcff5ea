// Package script builds command trees from Lua.
//
// A script returns a tree table, or sets the global tree:
//
//	types = { color = { "red", "green", "blue" } }
//
//	return {
//	    name = "paint",
//	    children = {
//	        { name = "wall", overloads = {
//	            { args = { "color:color" }, run = function(c) print("wall " .. c) end },
//	            { args = { "color:color", "coats:int" }, run = function(c, n) end },
//	        } },
//	        { name = "reset", run = function() end },
//	    },
//	}
//
// Handlers run on the script's Lua state under a lock, each bounded by a
// timeout. A handler fails when it raises a Lua error or returns false or
// nil followed by a message. Only the base, table, string and math
// libraries are available; print writes to the configured output.
package script
