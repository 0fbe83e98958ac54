// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tddflow/pkg/types"
)

func assetKinds(assets []types.AssetReference) map[string]types.AssetType {
	out := make(map[string]types.AssetType, len(assets))
	for _, a := range assets {
		out[a.Name] = a.Type
	}
	return out
}

func findAsset(t *testing.T, assets []types.AssetReference, name string) types.AssetReference {
	t.Helper()
	for _, a := range assets {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("asset %q not found in %v", name, assets)
	return types.AssetReference{}
}

func TestParseAssets_Go(t *testing.T) {
	src := `package calc

import (
	"errors"
	"strings"
)

// MaxOperands bounds the number of inputs.
const MaxOperands = 8

const internalLimit = 2

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

func helper() {}

type Calculator struct{}

func (c *Calculator) Multiply(a, b int) int { return a * b }

type Operation interface {
	Apply(a, b int) int
}

type Result = int
`
	assets, err := ParseAssets(context.Background(), "calc/calc.go", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AssetType{
		"MaxOperands": types.AssetConstant,
		"Add":         types.AssetFunction,
		"Calculator":  types.AssetClass,
		"Multiply":    types.AssetFunction,
		"Operation":   types.AssetInterface,
		"Result":      types.AssetTypeDef,
	}, assetKinds(assets))

	add := findAsset(t, assets, "Add")
	assert.Equal(t, 14, add.LineNumber)
	assert.Equal(t, "calc/calc.go", add.FilePath)
	assert.Equal(t, "func Add(a, b int) int", add.Signature)
	assert.Equal(t, "Add returns the sum of a and b.", add.Description)
	assert.Equal(t, []string{"errors", "strings"}, add.Dependencies)
}

func TestParseAssets_TypeScript(t *testing.T) {
	src := `import { format } from "./format";

/** Adds two numbers. */
export function add(a: number, b: number): number {
  return a + b;
}

function hidden(): void {}

export interface Shape {
  area(): number;
}

export type Id = string;

export const PI = 3.14;

export const double = (n: number): number => n * 2;

export class MathService {}
`
	assets, err := ParseAssets(context.Background(), "src/math.ts", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AssetType{
		"add":         types.AssetFunction,
		"Shape":       types.AssetInterface,
		"Id":          types.AssetTypeDef,
		"PI":          types.AssetConstant,
		"double":      types.AssetFunction,
		"MathService": types.AssetClass,
	}, assetKinds(assets))

	add := findAsset(t, assets, "add")
	assert.Equal(t, "Adds two numbers.", add.Description)
	assert.Equal(t, []string{"./format"}, add.Dependencies)
}

func TestParseAssets_TSXComponents(t *testing.T) {
	src := `import React from "react";

export function Button() {
  return <button>Click</button>;
}

export class Page extends React.Component {
  render() {
    return <div />;
  }
}

export function formatLabel(s: string) {
  return s.trim();
}
`
	assets, err := ParseAssets(context.Background(), "ui/Button.tsx", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AssetType{
		"Button":      types.AssetComponent,
		"Page":        types.AssetComponent,
		"formatLabel": types.AssetFunction,
	}, assetKinds(assets))
}

func TestParseAssets_Python(t *testing.T) {
	src := `import json
from os import path

MAX_RETRIES = 3
debug = False


def add(a, b):
    """Add two numbers."""
    return a + b


def _private():
    pass


class Calculator:
    pass
`
	assets, err := ParseAssets(context.Background(), "calc.py", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AssetType{
		"MAX_RETRIES": types.AssetConstant,
		"add":         types.AssetFunction,
		"Calculator":  types.AssetClass,
	}, assetKinds(assets))

	add := findAsset(t, assets, "add")
	assert.Equal(t, "Add two numbers.", add.Description)
	assert.Equal(t, []string{"json", "os"}, add.Dependencies)
}

func TestParseAssets_Java(t *testing.T) {
	src := `import java.util.List;

public class Calculator {
    public int add(int a, int b) {
        return a + b;
    }

    private void hidden() {}
}

interface Internal {}
`
	assets, err := ParseAssets(context.Background(), "Calculator.java", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AssetType{
		"Calculator": types.AssetClass,
		"add":        types.AssetFunction,
	}, assetKinds(assets))
	assert.Equal(t, []string{"java.util.List"}, findAsset(t, assets, "add").Dependencies)
}

func TestParseAssets_Rust(t *testing.T) {
	src := `use std::collections::HashMap;

pub fn add(a: i32, b: i32) -> i32 {
    a + b
}

fn private() {}

pub struct Point {
    x: i32,
}

impl Point {
    pub fn norm(&self) -> i32 { self.x }
}

pub trait Shape {}

pub const ORIGIN: i32 = 0;
`
	assets, err := ParseAssets(context.Background(), "lib.rs", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AssetType{
		"add":    types.AssetFunction,
		"Point":  types.AssetClass,
		"norm":   types.AssetFunction,
		"Shape":  types.AssetInterface,
		"ORIGIN": types.AssetConstant,
	}, assetKinds(assets))
}

func TestParseAssets_Errors(t *testing.T) {
	_, err := ParseAssets(context.Background(), "notes.kt", []byte("fun main() {}"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = ParseAssets(context.Background(), "bad.go", []byte{0xff, 0xfe})
	assert.Error(t, err)
}

func TestExtractFile_TooLarge(t *testing.T) {
	root := t.TempDir()
	big := "package big\n" + strings.Repeat("// x\n", MaxSourceSize/5+1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.go"), []byte(big), 0o600))

	_, err := ExtractFile(context.Background(), root, "big.go")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
