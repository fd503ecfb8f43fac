package constant

// Script Function Identifiers - the globals a Lua backend script must define.
const (
	ScriptPriorityFn = "priority"
	ScriptCanPlayFn  = "can_play"
)

// ScriptTemplate is a Go text/template for scaffolding new Lua backend scripts.
const ScriptTemplate = `{{ $divider := repeat "-" (plus (max (len .ID) (len .Command) (len .Author) 3) 12) }}{{ $divider }}
-- @id      {{ .ID }}
-- @command {{ .Command }}
-- @author  {{ .Author }}
{{ $divider }}


---@alias file { path: string, mimetype: string, type: string, codecs: string|nil, stream: string|nil }


id = "{{ .ID }}"
name = "{{ .ID }}"

-- Command used to launch the player. The media path is appended as the last argument.
command = { "{{ .Command }}" }


--- Static priority of this backend. Higher wins; 0 means "never the default".
-- @return number
function {{ .PriorityFn }}()
	return 5
end


--- Reports whether this backend can play the given media file.
-- @param f file
-- @return boolean
function {{ .CanPlayFn }}(f)
	return f.type == "video" or f.type == "audio"
end

-- ex: ts=4 sw=4 et filetype=lua
`
