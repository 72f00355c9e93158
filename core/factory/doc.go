// Package factory provides a small generic registry used to build pluggable
// components from configuration. A component is selected by a type string
// and configured through a map of raw settings that factories decode into
// typed structs.
//
// Example usage:
//
//	reg := factory.NewRegistry[io.Writer]()
//	reg.Register("file", func(conf map[string]any) (io.Writer, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return os.Create(c.Path)
//	})
//	w, err := reg.Create(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "out.log"}})
package factory
