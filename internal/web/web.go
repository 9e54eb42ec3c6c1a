package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates static
var assets embed.FS

// Register monta la UI de chat en el router: la página en / y los assets
// estáticos en /static. La página habla con la API JSON desde el navegador.
func Register(r *gin.Engine) error {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(staticFS))

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Title": "Knowledge Assistant",
		})
	})
	return nil
}
