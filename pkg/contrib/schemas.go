package contrib

import (
	"github.com/openfroyo/configglue/pkg/schema"
)

// DevServer describes django-devserver.
func DevServer() *schema.Schema {
	return schema.NewBuilder("DevServerSchema").Version("0.3.1").Section("devserver",
		stringList("devserver_args", schema.Default(stringValues()),
			schema.Help("Additional command line arguments to pass to the runserver command (as defaults).")),
		schema.NewString("devserver_default_addr", schema.Default("127.0.0.1"),
			schema.Help("The default address to bind to.")),
		schema.NewString("devserver_default_port", schema.Default("8000"),
			schema.Help("The default port to bind to.")),
		stringList("devserver_wsgi_middleware", schema.Default(stringValues()),
			schema.Help("A list of additional WSGI middleware to apply to the runserver command.")),
		stringList("devserver_modules", schema.Default(stringValues("devserver.modules.sql.SQLRealTimeModule")),
			schema.Help("List of devserver modules to enable")),
		stringList("devserver_ignored_prefixes", schema.Default(stringValues("/media", "/uploads")),
			schema.Help("List of prefixes to supress and skip process on.")),
		schema.NewBool("devserver_truncate_sql", schema.Default(true),
			schema.Help("Truncate SQL queries output by SQLRealTimeModule.")),
		schema.NewBool("devserver_truncate_aggregates", schema.Default(false)),
		schema.NewBool("devserver_active", schema.Default(false)),
		schema.NewInt("devserver_ajax_content_length", schema.Default(300),
			schema.Help("Maximum response length to dump.")),
		schema.NewBool("devserver_ajax_pretty_print", schema.Default(false)),
		schema.NewInt("devserver_sql_min_duration",
			schema.Help("Minimum time a query must execute to be shown, value is in ms.")),
		schema.NewBool("devserver_auto_profile", schema.Default(false),
			schema.Help("Automatically profile all view functions.")),
	).MustBuild()
}

// DjangoJenkins describes django-jenkins.
func DjangoJenkins() *schema.Schema {
	return schema.NewBuilder("DjangoJenkinsSchema").Version("0.12.1").Section("django_jenkins",
		stringList("project_apps", schema.Default(stringValues()),
			schema.Help("List of of django apps for Jenkins to run.")),
		schema.NewTuple("jenkins_tasks",
			schema.Default(schema.Tuple{
				"django_jenkins.tasks.run_pylint",
				"django_jenkins.tasks.with_coverage",
				"django_jenkins.tasks.django_tests",
			}),
			schema.Help("List of Jenkins tasks executed by ./manage.py jenkins command.")),
		schema.NewString("jenkins_test_runner", schema.Default(""),
			schema.Help("The name of the class to use for starting the test suite for jenkins and jtest commands.")),
	).MustBuild()
}

// DjangoOpenIDAuth describes django-openid-auth.
func DjangoOpenIDAuth() *schema.Schema {
	return schema.NewBuilder("DjangoOpenIdAuthSchema").Version("0.5").Section("openid",
		schema.NewBool("openid_use_as_admin_login", schema.Default(false)),
		schema.NewBool("openid_create_users", schema.Default(false)),
		schema.NewBool("openid_update_details_from_sreg", schema.Default(false)),
		schema.NewBool("openid_physical_multifactor_required", schema.Default(false)),
		schema.NewBool("openid_strict_usernames", schema.Default(false)),
		stringList("openid_sreg_required_fields"),
		stringList("openid_sreg_extra_fields"),
		schema.NewBool("openid_follow_renames", schema.Default(false)),
		schema.NewBool("openid_launchpad_teams_mapping_auto", schema.Default(false)),
		stringList("openid_launchpad_teams_mapping_auto_blacklist"),
		schema.NewDict("openid_launchpad_teams_mapping"),
		stringList("openid_launchpad_staff_teams"),
		stringList("openid_launchpad_teams_required"),
		schema.NewBool("openid_disallow_inames", schema.Default(false)),
		stringList("allowed_external_openid_redirect_domains"),
		schema.NewString("openid_trust_root"),
		schema.NewString("openid_sso_server_url", schema.Null()),
		stringList("openid_email_whitelist_regexp_list"),
	).MustBuild()
}

// Nexus describes nexus.
func Nexus() *schema.Schema {
	return schema.NewBuilder("NexusSchema").Version("0.2.3").Section("nexus",
		schema.NewString("nexus_media_prefix", schema.Default("/nexus/media/")),
		schema.NewBool("nexus_use_django_media_url", schema.Default(false)),
	).MustBuild()
}

// Preflight describes django-preflight.
func Preflight() *schema.Schema {
	return schema.NewBuilder("PreflightSchema").Version("0.1").Section("preflight",
		schema.NewString("preflight_base_template", schema.Default("index.1col.html")),
		schema.NewString("preflight_table_class", schema.Default("listing")),
	).MustBuild()
}

// PyStatsd describes pystatsd.
func PyStatsd() *schema.Schema {
	return schema.NewBuilder("PyStatsdSchema").Version("0.1.6").Section("statsd",
		schema.NewString("statsd_host", schema.Default("localhost")),
		schema.NewInt("statsd_port", schema.Default(8125)),
	).MustBuild()
}

// Statsd describes a statsd client. It declares the same statsd section
// as PyStatsd, so the two merge cleanly.
func Statsd() *schema.Schema {
	return schema.NewBuilder("StatsdSchema").Extend(PyStatsd()).MustBuild()
}

// Raven describes the raven Sentry client.
func Raven() *schema.Schema {
	return schema.NewBuilder("RavenSchema").Version("1.6.1").Section("raven",
		stringList("sentry_servers"),
		stringList("sentry_include_paths"),
		stringList("sentry_exclude_paths",
			schema.Help("Ignore module prefixes when attempting to discover which function an error comes from.")),
		schema.NewInt("sentry_timeout", schema.Default(5),
			schema.Help("Timeout value for sending messages to remote.")),
		schema.NewString("sentry_name", schema.Null(),
			schema.Help("This will override the server_name value for this installation.")),
		schema.NewBool("sentry_auto_log_stacks", schema.Default(false),
			schema.Help("Should raven automatically log frame stacks (including locals) all calls as it would for exceptions.")),
		schema.NewString("sentry_key", schema.Null()),
		schema.NewInt("sentry_max_length_string", schema.Default(200),
			schema.Help("The maximum characters of a string that should be stored.")),
		schema.NewInt("sentry_max_length_list", schema.Default(50),
			schema.Help("The maximum number of items a list-like container should store.")),
		schema.NewString("sentry_site", schema.Null(),
			schema.Help("An optional, arbitrary string to identify this client installation.")),
		schema.NewString("sentry_public_key", schema.Null(),
			schema.Help("Public key of the project member which will authenticate as the client.")),
		schema.NewString("sentry_private_key", schema.Null(),
			schema.Help("Private key of the project member which will authenticate as the client.")),
		schema.NewInt("sentry_project", schema.Default(1),
			schema.Help("Sentry project ID. The default value for installations is 1.")),
		stringList("sentry_processors", schema.Default(stringValues("raven.processors.SanitizePasswordsProcessor")),
			schema.Help("List of processors to apply to events before sending them to the Sentry server.")),
		schema.NewString("sentry_dsn", schema.Help("A sentry compatible DSN.")),
		schema.NewString("sentry_client", schema.Default("raven.contrib.django.DjangoClient")),
		schema.NewBool("sentry_debug", schema.Default(false)),
	).MustBuild()
}

// Saml2Idp describes saml2idp.
func Saml2Idp() *schema.Schema {
	return schema.NewBuilder("Saml2IdpSchema").Version("0.14").Section("saml2",
		schema.NewBool("saml2idp_autosubmit", schema.Default(true)),
		schema.NewString("saml2idp_issuer", schema.Default("http://127.0.0.1:8000")),
		schema.NewString("saml2idp_certificate_file", schema.Default("keys/certificate.pem")),
		schema.NewString("saml2idp_private_key_file", schema.Default("keys/private-key.pem")),
		schema.NewBool("saml2idp_signing", schema.Default(true)),
		stringList("saml2idp_valid_acs", schema.Default(stringValues("https://login.salesforce.com")),
			schema.Help("List of ACS URLs accepted by /+saml login")),
		stringList("saml2idp_processor_classes",
			schema.Default(stringValues("saml2idp.salesforce.Processor", "saml2idp.google_apps.Processor")),
			schema.Help("List of SAML 2.0 AuthnRequest processors")),
	).MustBuild()
}
