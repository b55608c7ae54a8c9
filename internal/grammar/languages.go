package grammar

import (
	"unsafe"

	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	tree_sitter_lua "github.com/tree-sitter-grammars/tree-sitter-lua/bindings/go"
	tree_sitter_scala "github.com/tree-sitter/tree-sitter-scala/bindings/go"

	"github.com/standardbeagle/cpg/internal/types"
)

// languageSpec carries one language's grammar pointer accessor plus
// its three-or-four precompiled query sources.
type languageSpec struct {
	languagePtr func() unsafe.Pointer
	definitions string
	calls       string
	imports     string
	inherits    string
}

var languageSpecs = map[types.Language]languageSpec{
	types.LangPython: {
		languagePtr: tree_sitter_python.Language,
		definitions: `
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
		`,
		calls: `
			(call function: (identifier) @call.name) @call
			(call function: (attribute attribute: (identifier) @call.name) @call.object) @call
		`,
		imports: `
			(import_statement name: (dotted_name) @import.module) @import
			(import_from_statement
				module_name: (dotted_name) @import.module
				name: (dotted_name) @import.name) @import
			(import_from_statement
				module_name: (relative_import) @import.module
				name: (dotted_name) @import.name) @import
			(aliased_import alias: (identifier) @import.alias) @import
			(wildcard_import) @import.wildcard
		`,
		inherits: `
			(class_definition
				name: (identifier) @class.name
				superclasses: (argument_list (identifier) @class.parent))
		`,
	},
	types.LangJavaScript: {
		languagePtr: tree_sitter_javascript.Language,
		definitions: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression property: (property_identifier) @call.name) @call.object) @call
		`,
		imports: `
			(import_statement source: (string) @import.source) @import
			(import_clause (identifier) @import.default)
			(namespace_import (identifier) @import.wildcard)
			(named_imports (import_specifier name: (identifier) @import.name alias: (identifier)? @import.alias))
		`,
		inherits: `
			(class_declaration
				name: (identifier) @class.name
				(class_heritage (identifier) @class.parent))
		`,
	},
	types.LangTypeScript: {
		languagePtr: tree_sitter_typescript.LanguageTypescript,
		definitions: `
			(function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @interface.name) @interface
			(enum_declaration name: (identifier) @enum.name) @enum
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression property: (property_identifier) @call.name) @call.object) @call
		`,
		imports: `
			(import_statement source: (string) @import.source) @import
			(import_clause (identifier) @import.default)
			(namespace_import (identifier) @import.wildcard)
			(named_imports (import_specifier name: (identifier) @import.name alias: (identifier)? @import.alias))
		`,
		inherits: `
			(class_declaration
				name: (type_identifier) @class.name
				(class_heritage (extends_clause value: (identifier) @class.parent)))
		`,
	},
	types.LangJava: {
		languagePtr: tree_sitter_java.Language,
		definitions: `
			(method_declaration name: (identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
			(interface_declaration name: (identifier) @interface.name) @interface
			(enum_declaration name: (identifier) @enum.name) @enum
		`,
		calls: `
			(method_invocation name: (identifier) @call.name) @call
			(method_invocation object: (_) @call.object name: (identifier) @call.name) @call
		`,
		imports: `
			(import_declaration (scoped_identifier) @import.path) @import
			(import_declaration (identifier) @import.path) @import
		`,
		inherits: `
			(class_declaration
				name: (identifier) @class.name
				superclass: (superclass (type_identifier) @class.parent))
			(class_declaration
				name: (identifier) @class.name
				interfaces: (super_interfaces (type_list (type_identifier) @class.parent)))
		`,
	},
	types.LangGo: {
		languagePtr: tree_sitter_go.Language,
		definitions: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration
				receiver: (parameter_list) @method.receiver
				name: (field_identifier) @method.name) @method
			(type_declaration (type_spec name: (type_identifier) @type.name)) @type
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (selector_expression field: (field_identifier) @call.name) @call.object) @call
		`,
		imports: `
			(import_spec path: (interpreted_string_literal) @import.path name: (package_identifier)? @import.alias) @import
		`,
	},
	types.LangRust: {
		languagePtr: tree_sitter_rust.Language,
		definitions: `
			(function_item name: (identifier) @function.name) @function
			(impl_item type: (type_identifier) @class.name) @class
			(struct_item name: (type_identifier) @class.name) @class
			(trait_item name: (type_identifier) @interface.name) @interface
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (field_expression field: (field_identifier) @call.name) @call.object) @call
			(call_expression function: (scoped_identifier name: (identifier) @call.name) @call.path) @call
		`,
		imports: `
			(use_declaration argument: (scoped_identifier) @import.path) @import
			(use_declaration argument: (use_wildcard) @import.wildcard) @import
			(use_as_clause path: (_) @import.path alias: (identifier) @import.alias) @import
		`,
		inherits: `
			(impl_item trait: (type_identifier) @class.parent type: (type_identifier) @class.name)
		`,
	},
	types.LangCPP: {
		languagePtr: tree_sitter_cpp.Language,
		definitions: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(class_specifier name: (type_identifier) @class.name) @class
			(struct_specifier name: (type_identifier) @class.name) @class
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (field_expression field: (field_identifier) @call.name) @call.object) @call
		`,
		imports: `
			(preproc_include path: (string_literal) @import.path) @import
			(preproc_include path: (system_lib_string) @import.path) @import
			(using_declaration (qualified_identifier) @import.path) @import
		`,
		inherits: `
			(class_specifier
				name: (type_identifier) @class.name
				(base_class_clause (type_identifier) @class.parent))
		`,
	},
	types.LangC: {
		languagePtr: tree_sitter_c.Language,
		definitions: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(struct_specifier name: (type_identifier) @class.name) @class
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
		`,
		imports: `
			(preproc_include path: (string_literal) @import.path) @import
			(preproc_include path: (system_lib_string) @import.path) @import
		`,
	},
	types.LangLua: {
		languagePtr: tree_sitter_lua.Language,
		definitions: `
			(function_declaration name: (identifier) @function.name) @function
			(function_declaration name: (dot_index_expression field: (identifier) @method.name)) @method
			(local_function name: (identifier) @function.name) @function
		`,
		calls: `
			(function_call name: (identifier) @call.name) @call
			(function_call name: (dot_index_expression field: (identifier) @call.name) @call.object) @call
			(function_call name: (method_index_expression method: (identifier) @call.name) @call.object) @call
		`,
		imports: `
			(function_call
				name: (identifier) @import.fn
				arguments: (arguments (string) @import.path)
				(#eq? @import.fn "require")) @import
		`,
	},
	types.LangScala: {
		languagePtr: tree_sitter_scala.Language,
		definitions: `
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
			(object_definition name: (identifier) @class.name) @class
			(trait_definition name: (identifier) @interface.name) @interface
		`,
		calls: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (field_expression field: (identifier) @call.name) @call.object) @call
		`,
		imports: `
			(import_declaration path: (stable_identifier) @import.path) @import
		`,
		inherits: `
			(class_definition
				name: (identifier) @class.name
				(extends_clause (type_identifier) @class.parent))
		`,
	},
}
