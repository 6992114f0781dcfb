package expr

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),
		ext.Encoders(),

		// `pathBase` returns the last element of the path.
		// Example: pathBase(node.fileAbsolutePath) == "index.md".
		cel.Function("pathBase",
			cel.Overload("path_base", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathBase: invalid string value")
					}

					return types.String(filepath.Base(pathValue))
				}),
			),
		),

		// `pathDir` returns all but the last element of the path.
		// Example: pathDir(node.fileAbsolutePath).contains("/posts/").
		cel.Function("pathDir",
			cel.Overload("path_dir", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathDir: invalid string value")
					}

					return types.String(filepath.Dir(pathValue))
				}),
			),
		),

		// `pathExt` returns the file extension of the path.
		// Example: pathExt(node.fileAbsolutePath) in [".md", ".mdx"].
		cel.Function("pathExt",
			cel.Overload("path_ext", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathExt: invalid string value")
					}

					return types.String(filepath.Ext(pathValue))
				}),
			),
		),

		// `slug` converts a string into a lowercase, URL-safe slug.
		// Example: slug("Héllo, World!") == "hello-world".
		cel.Function("slug",
			cel.Overload("slug_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(s ref.Val) ref.Val {
					str, ok := s.(types.String).Value().(string)
					if !ok {
						return types.NewErr("slug: invalid string value")
					}

					out, err := Slug(str)
					if err != nil {
						return types.NewErr("slug: %v", err)
					}

					return types.String(out)
				}),
			),
		),

		// `humanBytes` formats a byte count, e.g. humanBytes(node.size) == "82 kB".
		cel.Function("humanBytes",
			cel.Overload("human_bytes_int", []*cel.Type{cel.IntType}, cel.StringType,
				cel.UnaryBinding(func(n ref.Val) ref.Val {
					size, ok := n.(types.Int).Value().(int64)
					if !ok {
						return types.NewErr("humanBytes: invalid int value")
					}
					if size < 0 {
						return types.NewErr("humanBytes: negative size %d", size)
					}

					return types.String(humanize.Bytes(uint64(size))) //nolint:gosec // G115: checked above.
				}),
			),
			cel.Overload("human_bytes_uint", []*cel.Type{cel.UintType}, cel.StringType,
				cel.UnaryBinding(func(n ref.Val) ref.Val {
					size, ok := n.(types.Uint).Value().(uint64)
					if !ok {
						return types.NewErr("humanBytes: invalid uint value")
					}

					return types.String(humanize.Bytes(size))
				}),
			),
		),

		// `yamlPath` reads a YAML file and extracts a value using a YAML path.
		// Returns the value at the specified path, or null if the path doesn't exist or file can't be read.
		// Example: yamlPath(pathDir(node.fileAbsolutePath) + "/meta.yaml", "$.author").
		cel.Function("yamlPath",
			cel.Overload("yaml_path", []*cel.Type{cel.StringType, cel.StringType}, cel.DynType,
				cel.BinaryBinding(func(filePath, yamlPathExpr ref.Val) ref.Val {
					filePathStr, ok := filePath.(types.String).Value().(string)
					if !ok {
						return types.NewErr("yamlPath: invalid file path")
					}

					yamlPathStr, ok := yamlPathExpr.(types.String).Value().(string)
					if !ok {
						return types.NewErr("yamlPath: invalid yaml path")
					}

					return readYAMLPath(filePathStr, yamlPathStr)
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

//nolint:ireturn // Following CEL's function signature.
func readYAMLPath(filePath, yamlPath string) ref.Val {
	logger := slog.With(
		slog.String("file", filePath),
		slog.String("yamlPath", yamlPath),
	)

	//nolint:gosec // G304: Potential file inclusion via variable.
	content, err := os.ReadFile(filePath)
	if err != nil {
		// Return null if file can't be read, don't error.
		logger.Debug("failed to read YAML file, returning null",
			slog.Any("error", err),
		)

		return types.NullValue
	}

	path, err := yaml.PathString(yamlPath)
	if err != nil {
		logger.Debug("invalid YAML path, returning null",
			slog.Any("error", err),
		)

		return types.NullValue
	}

	var value any

	err = path.Read(strings.NewReader(string(content)), &value)
	if err != nil {
		logger.Debug("failed to extract value from YAML, returning null",
			slog.Any("error", err),
		)

		return types.NullValue
	}

	return ConvertToCELValue(value)
}

// Slug lowercases s, strips diacritics, and joins the remaining runs of
// letters and digits with single dashes.
func Slug(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		return "", err //nolint:wrapcheck // Return the original error.
	}

	folded = cases.Lower(language.Und).String(folded)

	var (
		b    strings.Builder
		dash bool
	)

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}

			b.WriteRune(r)

			dash = false

			continue
		}

		dash = true
	}

	return b.String(), nil
}

// ConvertToCELValue converts a Go value to a CEL value.
// Handles common YAML types and returns null for unsupported types.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case ref.Val:
		return v

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int8:
		return types.Int(int64(v))

	case int16:
		return types.Int(int64(v))

	case int32:
		return types.Int(int64(v))

	case int64:
		return types.Int(v)

	case uint:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case uint8:
		return types.Int(int64(v))

	case uint16:
		return types.Int(int64(v))

	case uint32:
		return types.Int(int64(v))

	case uint64:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float32:
		return types.Double(float64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case time.Time:
		return types.Timestamp{Time: v}

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, celValues)

	case []string:
		return types.NewStringList(types.DefaultTypeAdapter, v)

	case map[any]any:
		celMap := make(map[ref.Val]ref.Val)
		for key, val := range v {
			celMap[ConvertToCELValue(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val)
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	default:
		// For unsupported types, return null instead of erroring.
		return types.NullValue
	}
}

// ConvertToNative converts a CEL value back into plain Go values: maps become
// map[string]any, lists become []any, null becomes nil.
func ConvertToNative(val ref.Val) any {
	switch v := val.(type) {
	case types.Null:
		return nil

	case traits.Mapper:
		out := map[string]any{}

		it := v.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()

			k, ok := ConvertToNative(key).(string)
			if !ok {
				k = toString(key)
			}

			out[k] = ConvertToNative(v.Get(key))
		}

		return out

	case traits.Lister:
		size, ok := v.Size().(types.Int)
		if !ok {
			return nil
		}

		out := make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			out = append(out, ConvertToNative(v.Get(i)))
		}

		return out
	}

	return val.Value()
}

func toString(val ref.Val) string {
	s, ok := val.ConvertToType(types.StringType).(types.String)
	if !ok {
		return ""
	}

	return string(s)
}
