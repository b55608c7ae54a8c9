package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cpg/internal/grammar"
	"github.com/standardbeagle/cpg/internal/types"
)

func TestPythonImportsDirectAndAliased(t *testing.T) {
	source := `import os
import numpy as np
from pkg.utils import helper
from pkg.utils import helper as h
from pkg.utils import *
`
	idx := map[string]types.QN{"pkg.utils": "project.pkg.utils"}
	r := NewImportResolver(idx)

	m := grammar.NewManager()
	p, err := m.Parser(types.LangPython)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	aliases := r.BuildImportMap(types.LangPython, tree.RootNode(), "project.mod", []byte(source))

	assert.Equal(t, types.QN("os"), aliases["os"])
	assert.Equal(t, types.QN("numpy"), aliases["np"])
	assert.Equal(t, types.QN("project.pkg.utils.helper"), aliases["helper"])
	assert.Equal(t, types.QN("project.pkg.utils.helper"), aliases["h"])
	assert.Equal(t, types.QN("project.pkg.utils"), aliases["*pkg.utils"])
}

func TestPythonRelativeImport(t *testing.T) {
	source := `from . import sibling
from .. import cousin
`
	r := NewImportResolver(nil)
	m := grammar.NewManager()
	p, err := m.Parser(types.LangPython)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	aliases := r.BuildImportMap(types.LangPython, tree.RootNode(), "project.pkg.mod", []byte(source))
	assert.Equal(t, types.QN("project.pkg.sibling"), aliases["sibling"])
	assert.Equal(t, types.QN("project.cousin"), aliases["cousin"])
}

func TestJSImportsDefaultNamespaceAndNamed(t *testing.T) {
	source := `import Foo from "./foo";
import * as bar from "./bar";
import { baz, qux as q } from "./bazqux";
`
	idx := map[string]types.QN{"./foo": "project.foo", "./bar": "project.bar", "./bazqux": "project.bazqux"}
	r := NewImportResolver(idx)
	m := grammar.NewManager()
	p, err := m.Parser(types.LangJavaScript)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	aliases := r.BuildImportMap(types.LangJavaScript, tree.RootNode(), "project.mod", []byte(source))
	assert.Equal(t, types.QN("project.foo"), aliases["Foo"])
	assert.Equal(t, types.QN("project.bar"), aliases["*./bar"])
	assert.Equal(t, types.QN("project.bazqux.baz"), aliases["baz"])
	assert.Equal(t, types.QN("project.bazqux.qux"), aliases["q"])
}

func TestJSImportsRelativeSpecifierClimbsDirectories(t *testing.T) {
	// §8 scenario 6: from test_project.src.components.ui.Button,
	// "../../shared/utils" must resolve to test_project.src.shared.utils,
	// climbing past components/ and ui/ rather than being looked up
	// verbatim in the module index (which is keyed by bare dotted
	// module paths, never by a "../.." specifier).
	source := `import { helper } from "../../shared/utils";
import Local from "./sibling";
`
	r := NewImportResolver(nil)
	m := grammar.NewManager()
	p, err := m.Parser(types.LangJavaScript)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	moduleQN := types.QN("test_project.src.components.ui.Button")
	aliases := r.BuildImportMap(types.LangJavaScript, tree.RootNode(), moduleQN, []byte(source))

	assert.Equal(t, types.QN("test_project.src.shared.utils.helper"), aliases["helper"])
	assert.Equal(t, types.QN("test_project.src.components.ui.sibling"), aliases["Local"])
}

func TestJavaImportsWildcardAndSingle(t *testing.T) {
	source := `import java.util.List;
import java.util.*;
`
	r := NewImportResolver(nil)
	m := grammar.NewManager()
	p, err := m.Parser(types.LangJava)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	aliases := r.BuildImportMap(types.LangJava, tree.RootNode(), "project.mod", []byte(source))
	assert.Equal(t, types.QN("java.util.List"), aliases["List"])
	assert.Equal(t, types.QN("java.util"), aliases["*java.util"])
}

func TestGoImportsAliasedAndBare(t *testing.T) {
	source := `package main

import (
	"fmt"
	renamed "path/to/pkg"
)
`
	idx := map[string]types.QN{"path.to.pkg": "project.path.to.pkg"}
	r := NewImportResolver(idx)
	m := grammar.NewManager()
	p, err := m.Parser(types.LangGo)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	aliases := r.BuildImportMap(types.LangGo, tree.RootNode(), "project.mod", []byte(source))
	assert.Equal(t, types.QN("fmt"), aliases["fmt"])
	assert.Equal(t, types.QN("project.path.to.pkg"), aliases["renamed"])
}

func TestRustImportsScopedAndAliased(t *testing.T) {
	source := `use std::collections::HashMap;
use std::io as io_alias;
`
	r := NewImportResolver(nil)
	m := grammar.NewManager()
	p, err := m.Parser(types.LangRust)
	require.NoError(t, err)
	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)

	aliases := r.BuildImportMap(types.LangRust, tree.RootNode(), "project.mod", []byte(source))
	assert.Equal(t, types.QN("std.collections.HashMap"), aliases["HashMap"])
	assert.Equal(t, types.QN("std.io"), aliases["io_alias"])
}
