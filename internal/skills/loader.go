package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// skillFrontMatter mirrors the YAML front-matter block at the top of a
// SKILL.md file, between the leading and trailing "---" fences.
type skillFrontMatter struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	License       string            `yaml:"license"`
	Compatibility string            `yaml:"compatibility"`
	AllowedTools  []string          `yaml:"allowed-tools"`
	Metadata      map[string]string `yaml:"metadata"`
	Tools         []SkillToolDef    `yaml:"tools"`
	Disabled      bool              `yaml:"disabled"`
}

// IsSkillDir reports whether dir contains a SKILL.md or skill.md file and
// is therefore a loadable skill directory.
func IsSkillDir(dir string) bool {
	for _, name := range []string{"SKILL.md", "skill.md"} {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// LoadFromDir parses a skill directory's SKILL.md. When full is false, only
// the front-matter (name/description/metadata) is populated and the
// resource tree is left empty, which is all the registry needs for its
// metadata-injection pass. When full is true, the body and
// references/scripts/assets trees are populated as well.
func LoadFromDir(dir string, source SkillSource, full bool) (*Skill, error) {
	path, err := skillMdPath(dir)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	front, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("parse front matter in %s: %w", path, err)
	}

	var fm skillFrontMatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return nil, fmt.Errorf("unmarshal front matter in %s: %w", path, err)
	}

	name := fm.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	skill := &Skill{
		Name:          name,
		Description:   fm.Description,
		License:       fm.License,
		Compatibility: fm.Compatibility,
		AllowedTools:  fm.AllowedTools,
		Metadata:      fm.Metadata,
		Tools:         fm.Tools,
		Disabled:      fm.Disabled,
		Source:        source,
		SourcePath:    dir,
		loaded:        full,
	}

	if !full {
		return skill, nil
	}

	skill.Body = strings.TrimSpace(body)
	skill.References = listResourceFiles(filepath.Join(dir, "references"))
	skill.Scripts = listResourceFiles(filepath.Join(dir, "scripts"))
	skill.Assets = listResourceFiles(filepath.Join(dir, "assets"))

	return skill, nil
}

func skillMdPath(dir string) (string, error) {
	for _, name := range []string{"SKILL.md", "skill.md"} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no SKILL.md in %s", dir)
}

// splitFrontMatter separates the "---"-fenced YAML header from the
// markdown body that follows it.
func splitFrontMatter(raw []byte) (front, body string, err error) {
	text := string(raw)
	text = strings.TrimPrefix(text, "﻿") // strip BOM if present
	if !strings.HasPrefix(strings.TrimLeft(text, "\r\n"), "---") {
		return "", "", fmt.Errorf("missing leading --- front matter fence")
	}
	text = strings.TrimLeft(text, "\r\n")
	text = strings.TrimPrefix(text, "---")
	text = strings.TrimPrefix(text, "\n")

	idx := strings.Index(text, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("missing trailing --- front matter fence")
	}
	front = text[:idx]
	rest := text[idx+len("\n---"):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")
	return front, rest, nil
}

// listResourceFiles returns file names (not full paths) directly under dir,
// sorted by file name. Missing directories yield an empty list.
func listResourceFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}
