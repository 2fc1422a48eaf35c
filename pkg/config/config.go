package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	DB         DBConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Assets     AssetsConfig
	Brand      BrandConfig
	Render     RenderConfig
	Letterhead LetterheadConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL. Solo se usa para la ruta por orden;
// si no hay DATABASE_URL ni DB_HOST el servicio arranca sin base de datos.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// Enabled indica si hay datos de conexión configurados.
func (c DBConfig) Enabled() bool {
	return c.DatabaseURL != "" || c.Host != ""
}

// ConnectionString devuelve DATABASE_URL si está definido, si no el DSN construido.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string con la contraseña escapada.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// JWTConfig verificación opcional del token del cliente. Secret vacío = sin verificación.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host      string
	Port      int
	BodyLimit int // bytes
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AssetsConfig recursos leídos una vez al arrancar.
type AssetsConfig struct {
	FontsDir string // Roboto-Regular.ttf y Roboto-Bold.ttf; vacío = Helvetica
	LogoPath string // logo del encabezado por defecto; opcional
}

// BrandConfig encabezado por defecto y textos de pago cuando el request no los trae.
type BrandConfig struct {
	Name     string
	Subtitle string
	PayTill  string
	PayBank  string
	Terms    string
}

// RenderConfig opciones del encoder y de la respuesta.
type RenderConfig struct {
	Streaming   bool // true: body stream writer; false: respuesta con Content-Length
	Compression bool
	ChunkSize   int
	Timeout     time.Duration // límite del pipeline por request, incluida la descarga del membrete
}

// LetterheadConfig descarga de membretes por URL.
type LetterheadConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	AllowPrivate bool // permite URLs a loopback y redes privadas; solo desarrollo
}

// Textos impresos por defecto en facturas y cotizaciones.
const (
	DefaultSubtitle = "Nairobi, Kenya | +254 706 030912"
	DefaultPayTill  = "PAY TO TILL: buy goods Till no. 4189906 (Masterpiece Empire)"
	DefaultPayBank  = "PAY TO BANK: StanBic Bank, Kenyatta Avenue, A/C 0100010297553"
	DefaultTerms    = "TERMS:\n" +
		"This Quotation is valid for utmost 7days after date of issue.\n" +
		"VAT is applied where/when Applicable\n" +
		"Make payments to either of the two Options mentioned above ONLY."
)

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			Name:     v.GetString("APP_NAME"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        getInt(v, "DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    getInt(v, "DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
		},
		HTTP: HTTPConfig{
			Host:      v.GetString("HTTP_HOST"),
			Port:      getInt(v, "HTTP_PORT"),
			BodyLimit: getInt(v, "HTTP_BODY_LIMIT_BYTES"),
		},
		Assets: AssetsConfig{
			FontsDir: v.GetString("ASSETS_FONTS_DIR"),
			LogoPath: v.GetString("ASSETS_LOGO_PATH"),
		},
		Brand: BrandConfig{
			Name:     v.GetString("BRAND_NAME"),
			Subtitle: v.GetString("BRAND_SUBTITLE"),
			PayTill:  multiline(v.GetString("BRAND_PAY_TILL")),
			PayBank:  multiline(v.GetString("BRAND_PAY_BANK")),
			Terms:    multiline(v.GetString("BRAND_TERMS")),
		},
		Render: RenderConfig{
			Streaming:   getBool(v, "RENDER_STREAMING"),
			Compression: getBool(v, "RENDER_COMPRESSION"),
			ChunkSize:   getInt(v, "RENDER_CHUNK_BYTES"),
			Timeout:     time.Duration(getInt(v, "RENDER_TIMEOUT_SECONDS")) * time.Second,
		},
		Letterhead: LetterheadConfig{
			FetchTimeout: time.Duration(getInt(v, "LETTERHEAD_FETCH_TIMEOUT_SECONDS")) * time.Second,
			MaxBytes:     int64(getInt(v, "LETTERHEAD_MAX_BYTES")),
		},
	}

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("config: HTTP_PORT inválido: %d", cfg.HTTP.Port)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "docgen-api")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "masterpiece")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 5)

	v.SetDefault("JWT_ISSUER", "masterpiece-empire")

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_BODY_LIMIT_BYTES", 12<<20) // membrete en data URI incluido

	v.SetDefault("BRAND_NAME", "MASTERPIECE EMPIRE")
	v.SetDefault("BRAND_SUBTITLE", DefaultSubtitle)
	v.SetDefault("BRAND_PAY_TILL", DefaultPayTill)
	v.SetDefault("BRAND_PAY_BANK", DefaultPayBank)
	v.SetDefault("BRAND_TERMS", DefaultTerms)

	v.SetDefault("RENDER_STREAMING", false)
	v.SetDefault("RENDER_COMPRESSION", true)
	v.SetDefault("RENDER_CHUNK_BYTES", 32<<10)
	v.SetDefault("RENDER_TIMEOUT_SECONDS", 30)

	v.SetDefault("LETTERHEAD_FETCH_TIMEOUT_SECONDS", 10)
	v.SetDefault("LETTERHEAD_MAX_BYTES", 5<<20)
	v.SetDefault("LETTERHEAD_ALLOW_PRIVATE", false)
}

// getInt tolera valores con espacios o vacíos en el .env ("8080 ", "").
func getInt(v *viper.Viper, key string) int {
	n, err := cast.ToIntE(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return cast.ToInt(v.Get(key))
	}
	return n
}

func getBool(v *viper.Viper, key string) bool {
	b, err := cast.ToBoolE(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return false
	}
	return b
}

// multiline permite escribir saltos de línea como "\n" literal en una variable de entorno.
func multiline(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
