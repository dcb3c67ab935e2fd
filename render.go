package envgen

import "strings"

// Header prefixes every generated file.
const Header = "# Do not edit this file. It is automatically generated by envgen\n" +
	"# using the environment definition data in the environment\n" +
	"# configuration file and the requirements in pyproject.toml.\n"

// CondaChannels lists the channels written into conda environment files.
var CondaChannels = []string{"conda-forge"}

// RenderPip renders a pip requirements file.
func RenderPip(lines []string) string {
	return Header + strings.Join(lines, "\n") + "\n"
}

// RenderConda renders a conda environment file with keys name, channels, dependencies.
// An empty dependency list still renders a single empty item.
func RenderConda(name string, channels, lines []string) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("name: " + name + "\n")
	writeList(&b, "channels", channels)
	writeList(&b, "dependencies", lines)
	return b.String()
}

func writeList(b *strings.Builder, key string, items []string) {
	b.WriteString(key + ":\n  - " + strings.Join(items, "\n  - ") + "\n")
}

// Render renders lines in the format the environment's output path selects.
func Render(env Environment, lines []string) string {
	if env.IsConda() {
		return RenderConda(env.Name, CondaChannels, lines)
	}
	return RenderPip(lines)
}
