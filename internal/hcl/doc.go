// Package hcl provides the HCL implementation of config.Loader. It parses
// `.pzlint.hcl` files with hclparse, decodes them with gohcl and translates
// the result into the format-agnostic config.Model.
package hcl
