// Package nodetypes declara el modelo de contenido de los drives en el
// repositorio: raíz de drive, archivo y carpeta. Es configuración, no lógica;
// las únicas operaciones son de consulta y validación.
package nodetypes

import (
	"sort"
)

// PropertyType es el tipo de valor de una propiedad.
type PropertyType string

const (
	TypeString  PropertyType = "String"
	TypeBoolean PropertyType = "Boolean"
	TypeDate    PropertyType = "Date"
)

// PropertyDef define una propiedad de un tipo de nodo.
type PropertyDef struct {
	Name      string       `yaml:"name"`
	Type      PropertyType `yaml:"type"`
	Mandatory bool         `yaml:"mandatory,omitempty"`
	Multiple  bool         `yaml:"multiple,omitempty"`
}

// NodeType define un tipo de nodo.
type NodeType struct {
	Name       string        `yaml:"name"`
	Supertypes []string      `yaml:"supertypes,omitempty"`
	Own        []PropertyDef `yaml:"properties"`
	// ChildTypes son los tipos de nodo hijo permitidos.
	ChildTypes []string `yaml:"child_types,omitempty"`
	// Residual permite propiedades adicionales no declaradas (mono y multivaluadas).
	Residual bool `yaml:"residual"`
}

// Nombres de tipos.
const (
	CloudDrive  = "ecd:cloudDrive"
	CloudFile   = "ecd:cloudFile"
	CloudFolder = "ecd:cloudFolder"
)

// Nombres de propiedades.
const (
	PropTitle         = "exo:title"
	PropConnected     = "ecd:connected"
	PropLocalUserName = "ecd:localUserName"
	PropInitDate      = "ecd:initDate"
	PropProvider      = "ecd:provider"
	PropURL           = "ecd:url"
	PropID            = "ecd:id"
	PropCloudUserName = "ecd:cloudUserName"
	PropCloudUserID   = "ecd:cloudUserId"
	PropUserEmail     = "ecd:userEmail"
	PropConnectDate   = "ecd:connectDate"

	PropDriveUUID    = "ecd:driveUUID"
	PropType         = "ecd:type"
	PropAuthor       = "ecd:author"
	PropLastUser     = "ecd:lastUser"
	PropCreated      = "ecd:created"
	PropModified     = "ecd:modified"
	PropSynchronized = "ecd:synchronized"
)

var registry = map[string]*NodeType{
	CloudDrive: {
		Name: CloudDrive,
		Own: []PropertyDef{
			{Name: PropTitle, Type: TypeString, Mandatory: true},
			{Name: PropConnected, Type: TypeBoolean, Mandatory: true},
			{Name: PropLocalUserName, Type: TypeString, Mandatory: true},
			{Name: PropInitDate, Type: TypeDate, Mandatory: true},
			{Name: PropProvider, Type: TypeString, Mandatory: true},
			{Name: PropURL, Type: TypeString, Mandatory: true},
			{Name: PropID, Type: TypeString, Mandatory: true},
			// se completan al conectar
			{Name: PropCloudUserName, Type: TypeString},
			{Name: PropCloudUserID, Type: TypeString},
			{Name: PropUserEmail, Type: TypeString},
			{Name: PropConnectDate, Type: TypeDate},
		},
		ChildTypes: []string{CloudFile},
		Residual:   true,
	},
	CloudFile: {
		Name: CloudFile,
		Own: []PropertyDef{
			{Name: PropTitle, Type: TypeString, Mandatory: true},
			{Name: PropID, Type: TypeString, Mandatory: true},
			{Name: PropDriveUUID, Type: TypeString, Mandatory: true},
			{Name: PropType, Type: TypeString, Mandatory: true},
			{Name: PropURL, Type: TypeString, Mandatory: true},
			{Name: PropAuthor, Type: TypeString, Mandatory: true},
			{Name: PropLastUser, Type: TypeString, Mandatory: true},
			{Name: PropCreated, Type: TypeDate, Mandatory: true},
			{Name: PropModified, Type: TypeDate, Mandatory: true},
			{Name: PropSynchronized, Type: TypeDate, Mandatory: true},
		},
		Residual: true,
	},
	CloudFolder: {
		Name:       CloudFolder,
		Supertypes: []string{CloudFile},
		ChildTypes: []string{CloudFile},
		Residual:   true,
	},
}

// Lookup retorna el tipo de nodo por nombre.
func Lookup(name string) (*NodeType, bool) {
	nt, ok := registry[name]
	return nt, ok
}

// All retorna todos los tipos ordenados por nombre.
func All() []*NodeType {
	out := make([]*NodeType, 0, len(registry))
	for _, nt := range registry {
		out = append(out, nt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsA reporta si el tipo name es typeName o lo hereda.
func IsA(name, typeName string) bool {
	if name == typeName {
		return true
	}
	nt, ok := registry[name]
	if !ok {
		return false
	}
	for _, s := range nt.Supertypes {
		if IsA(s, typeName) {
			return true
		}
	}
	return false
}

// Properties retorna las propiedades propias y heredadas. Las propias
// prevalecen sobre las de los supertipos.
func (nt *NodeType) Properties() []PropertyDef {
	seen := map[string]bool{}
	var out []PropertyDef
	var walk func(t *NodeType)
	walk = func(t *NodeType) {
		for _, p := range t.Own {
			if !seen[p.Name] {
				seen[p.Name] = true
				out = append(out, p)
			}
		}
		for _, s := range t.Supertypes {
			if st, ok := registry[s]; ok {
				walk(st)
			}
		}
	}
	walk(nt)
	return out
}

// Property busca una definición (propia o heredada).
func (nt *NodeType) Property(name string) (PropertyDef, bool) {
	for _, p := range nt.Properties() {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDef{}, false
}
