package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protoserde/schema"
)

// wellKnownPrefix marks imports served by the builtin google.protobuf types.
const wellKnownPrefix = "google/protobuf/"

// collectImports uses DFS to fetch protoFile and everything it imports, resolved
// against the registry's proto directories. Files are returned in visit order.
func (r *Registry) collectImports(protoFile string) ([]string, map[string]*protoparserparser.Proto, error) {
	visited := make(map[string]struct{}) // to make sure we don't end up in a loop
	parsed := make(map[string]*protoparserparser.Proto)
	result := make([]string, 0)

	var dfs func(fullPath string) error
	dfs = func(fullPath string) error {
		if _, ok := visited[fullPath]; ok {
			return nil
		}
		visited[fullPath] = struct{}{}
		result = append(result, fullPath)

		body, err := parseProtoFile(fullPath)
		if err != nil {
			return err
		}
		parsed[fullPath] = body
		for _, visitee := range body.ProtoBody {
			imp, ok := visitee.(*protoparserparser.Import)
			if !ok {
				continue
			}
			importPath := unquote(imp.Location)
			if strings.HasPrefix(importPath, wellKnownPrefix) {
				continue
			}
			fullImportPath, err := r.findIfProtoExists(importPath)
			if err != nil {
				return fmt.Errorf("%s: %w", fullPath, err)
			}
			if err := dfs(fullImportPath); err != nil {
				return err
			}
		}
		return nil
	}

	protoPath, err := r.findIfProtoExists(protoFile)
	if err != nil {
		return nil, nil, err
	}
	if err := dfs(protoPath); err != nil {
		return nil, nil, err
	}
	return result, parsed, nil
}

// findIfProtoExists looks protoPath up in each proto directory in order.
func (r *Registry) findIfProtoExists(protoPath string) (string, error) {
	if !strings.HasSuffix(protoPath, ".proto") {
		return "", fmt.Errorf("file %s is not a .proto file", protoPath)
	}
	if filepath.IsAbs(protoPath) {
		if _, err := os.Stat(protoPath); err != nil {
			return "", fmt.Errorf("path does not exist: %w", err)
		}
		return protoPath, nil
	}
	var lastErr error
	for _, dir := range r.protoDirs {
		fullPath := filepath.Join(dir, protoPath)
		if _, err := os.Stat(fullPath); err != nil {
			lastErr = err
			continue
		}
		return fullPath, nil
	}
	if lastErr == nil {
		lastErr = os.ErrNotExist
	}
	return "", fmt.Errorf("path does not exist: %s in %v: %w", protoPath, r.protoDirs, lastErr)
}

func parseProtoFile(path string) (*protoparserparser.Proto, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	body, err := protoparser.Parse(bytes.NewReader(content), protoparser.WithFilename(filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return body, nil
}

// convertProtoFile converts a parsed file into its schema. Type references are
// left as written; buildDefinitions resolves them once every name is registered.
func convertProtoFile(name string, body *protoparserparser.Proto) (*schema.ProtoFile, error) {
	protoFile := &schema.ProtoFile{
		Name:     name,
		Syntax:   "proto2", // protoc default when no syntax statement is present
		Imports:  []*schema.Import{},
		Messages: []*schema.Message{},
		Enums:    []*schema.Enum{},
		Services: []*schema.Service{},
	}
	if body.Syntax != nil {
		protoFile.Syntax = unquote(body.Syntax.ProtobufVersion)
	}

	for _, visitee := range body.ProtoBody {
		switch b := visitee.(type) {
		case *protoparserparser.Package:
			protoFile.Package = b.Name
		case *protoparserparser.Import:
			protoFile.Imports = append(protoFile.Imports, &schema.Import{
				Path:   unquote(b.Location),
				Public: b.Modifier == protoparserparser.ImportModifierPublic,
				Weak:   b.Modifier == protoparserparser.ImportModifierWeak,
			})
		case *protoparserparser.Message:
			msg, err := convertMessage(b.MessageName, b.MessageBody)
			if err != nil {
				return nil, err
			}
			protoFile.Messages = append(protoFile.Messages, msg)
		case *protoparserparser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			protoFile.Enums = append(protoFile.Enums, enum)
		case *protoparserparser.Service:
			protoFile.Services = append(protoFile.Services, convertService(b))
		}
	}
	return protoFile, nil
}

func convertMessage(name string, body []protoparserparser.Visitee) (*schema.Message, error) {
	msg := &schema.Message{Name: name}
	for _, visitee := range body {
		switch b := visitee.(type) {
		case *protoparserparser.Field:
			number, err := parseNumber(b.FieldNumber)
			if err != nil {
				return nil, fmt.Errorf("message %s field %s: %w", name, b.FieldName, err)
			}
			label := schema.LabelOptional
			switch {
			case b.IsRepeated:
				label = schema.LabelRepeated
			case b.IsRequired:
				label = schema.LabelRequired
			}
			msg.Fields = append(msg.Fields, &schema.Field{
				Name:         b.FieldName,
				Number:       number,
				Label:        label,
				Type:         convertProtoType(b.Type),
				DefaultValue: fieldDefault(b.FieldOptions),
				OneofIndex:   -1,
			})
		case *protoparserparser.MapField:
			number, err := parseNumber(b.FieldNumber)
			if err != nil {
				return nil, fmt.Errorf("message %s field %s: %w", name, b.MapName, err)
			}
			key, value := convertProtoType(b.KeyType), convertProtoType(b.Type)
			msg.Fields = append(msg.Fields, &schema.Field{
				Name:       b.MapName,
				Number:     number,
				Label:      schema.LabelRepeated,
				Type:       schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &value},
				OneofIndex: -1,
			})
		case *protoparserparser.Oneof:
			index := int32(len(msg.OneofGroups))
			group := &schema.Oneof{Name: b.OneofName}
			for _, of := range b.OneofFields {
				number, err := parseNumber(of.FieldNumber)
				if err != nil {
					return nil, fmt.Errorf("message %s field %s: %w", name, of.FieldName, err)
				}
				field := &schema.Field{
					Name:       of.FieldName,
					Number:     number,
					Label:      schema.LabelOptional,
					Type:       convertProtoType(of.Type),
					OneofIndex: index,
				}
				group.Fields = append(group.Fields, field)
				msg.Fields = append(msg.Fields, field)
			}
			msg.OneofGroups = append(msg.OneofGroups, group)
		case *protoparserparser.GroupField:
			number, err := parseNumber(b.FieldNumber)
			if err != nil {
				return nil, fmt.Errorf("message %s group %s: %w", name, b.GroupName, err)
			}
			nested, err := convertMessage(b.GroupName, b.MessageBody)
			if err != nil {
				return nil, err
			}
			nested.Group = true
			msg.NestedTypes = append(msg.NestedTypes, nested)

			label := schema.LabelOptional
			switch {
			case b.IsRepeated:
				label = schema.LabelRepeated
			case b.IsRequired:
				label = schema.LabelRequired
			}
			msg.Fields = append(msg.Fields, &schema.Field{
				Name:       strings.ToLower(b.GroupName),
				Number:     number,
				Label:      label,
				Type:       schema.FieldType{Kind: schema.KindGroup, MessageType: b.GroupName},
				OneofIndex: -1,
			})
		case *protoparserparser.Message:
			nested, err := convertMessage(b.MessageName, b.MessageBody)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *protoparserparser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, enum)
		}
	}
	return msg, nil
}

func convertEnum(e *protoparserparser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{Name: e.EnumName}
	for _, visitee := range e.EnumBody {
		switch b := visitee.(type) {
		case *protoparserparser.EnumField:
			number, err := parseNumber(b.Number)
			if err != nil {
				return nil, fmt.Errorf("enum %s value %s: %w", e.EnumName, b.Ident, err)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{Name: b.Ident, Number: number})
		case *protoparserparser.Option:
			if b.OptionName == "allow_alias" && b.Constant == "true" {
				enum.AllowAlias = true
			}
		}
	}
	return enum, nil
}

func convertService(s *protoparserparser.Service) *schema.Service {
	service := &schema.Service{Name: s.ServiceName}
	for _, visitee := range s.ServiceBody {
		rpc, ok := visitee.(*protoparserparser.RPC)
		if !ok {
			continue
		}
		service.Methods = append(service.Methods, &schema.Method{
			Name:            rpc.RPCName,
			InputType:       rpc.RPCRequest.MessageType,
			OutputType:      rpc.RPCResponse.MessageType,
			ClientStreaming: rpc.RPCRequest.IsStream,
			ServerStreaming: rpc.RPCResponse.IsStream,
		})
	}
	return service
}

// convertProtoType classifies a type as written in a field declaration. Anything
// that is not a scalar keyword is recorded as an unresolved message reference.
func convertProtoType(typeName string) schema.FieldType {
	if schema.IsPrimitive(typeName) {
		return schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.PrimitiveType(typeName)}
	}
	return schema.FieldType{Kind: schema.KindMessage, MessageType: typeName}
}

func fieldDefault(opts []*protoparserparser.FieldOption) string {
	for _, opt := range opts {
		if opt.OptionName == "default" {
			return unquote(opt.Constant)
		}
	}
	return ""
}

func parseNumber(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return int32(n), nil
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}
