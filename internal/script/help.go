package script

// Help describes the snippet contract for the settings UI and the CLI.
const Help = `Computed columns run a snippet for every matching cell and use the list
it returns as CSS classes.

Security warning: only use snippets from trusted sources.

Available variables:
  el      the cell: el.property, el.tag, el.text, el.classes, el.attrs
  value   the property value: nil, a boolean (checkboxes), a string, or a
          list of strings (multi-select pills)

Every class name must start with the literal "$PREFIX-"; it is replaced with
the configured prefix before the snippet is compiled. Names without the
prefix are rejected. Returning anything other than a list adds no classes.

Engines:
  lua   (default) a function body:
          if value == nil then return {} end
          return { "$PREFIX-" .. value }
  expr  an expr-lang expression:
          value == nil ? [] : ["$PREFIX-" + value]
  cel   a CEL expression:
          value == null ? [] : ["$PREFIX-" + string(value)]
`
